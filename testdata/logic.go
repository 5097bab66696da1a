package prog

func between(x int) bool {
	return x >= 10 && x <= 20
}

func outside(x int) bool {
	return !between(x) || x == 15
}

func count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if outside(i) {
			c++
		}
	}
	return c
}

func main() int {
	return count(30)
}
