package prog

func zero() int {
	return 0
}

func main() int {
	return 10 / zero()
}
