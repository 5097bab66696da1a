package prog

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x > 0 {
		return 1
	} else if x == 0 {
		return 0
	}
	return -1
}

func main() int {
	return abs(-17)*100 + sign(-4) + sign(0)*10 + sign(9)*1000
}
