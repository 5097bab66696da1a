package prog

func main() int {
	x := 10
	return x % 3
}
