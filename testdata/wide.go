package prog

func main() int {
	big := 1 << 40
	x := big*3 + 5
	return x / (1 << 38)
}
