package prog

func main() int {
	s := []int{1, 2, 3}
	return s[1]
}
