package prog

func add(a, b int) int {
	return a + b
}

func main() int {
	return add(1, 2)
}
