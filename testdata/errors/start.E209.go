package prog

func _start(x int) int { return x + 1 }

func main() int { return _start(41) }
