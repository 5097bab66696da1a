package prog

func forever(n int) int {
	for {
		n = n + 1
	}
}

func main() int {
	return forever(0)
}
