package prog

// the loop carries two values that are exchanged on every iteration
func fib(n int) int {
	a, b := 0, 1
	for n > 0 {
		a, b = b, a+b
		n--
	}
	return a
}

func main() int {
	return fib(40)
}
