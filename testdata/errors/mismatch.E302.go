package prog

func main() int {
	return "ten"
}
