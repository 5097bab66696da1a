package prog

func __main_0(x int) int { return x + 1 }

func main() int { return __main_0(41) }
