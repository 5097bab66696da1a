package prog

func main() int {
	a := 7
	b := a * 6
	c := b - a/2
	return c + -a
}
