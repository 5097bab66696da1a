package prog

func double(x int) int {
	return x + x
}

func square(x int) int {
	return x * x
}

// values stay live across calls
func poly(x int) int {
	a := double(x)
	b := square(x)
	c := double(b)
	return a + b + c + x
}

func nothing() {
}

func main() int {
	nothing()
	return poly(5) - poly(-3)
}
