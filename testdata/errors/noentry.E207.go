package prog

func helper(x int) int {
	return x
}
