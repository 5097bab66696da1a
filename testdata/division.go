package prog

func collatz(n int) int {
	steps := 0
	for n != 1 {
		if n-n/2*2 == 0 {
			n = n / 2
		} else {
			n = 3*n + 1
		}
		steps++
	}
	return steps
}

func main() int {
	return collatz(27) + -7/2*1000
}
