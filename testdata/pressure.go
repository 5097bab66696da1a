package prog

// more values are live at once than there are registers
func mix(x int) int {
	a := x + 1
	b := x + 2
	c := x + 3
	d := x + 4
	e := x + 5
	f := x + 6
	g := x + 7
	h := x + 8
	i := x + 9
	j := x + 10
	k := x + 11
	l := x + 12
	return a*l - b*k + c*j - d*i + e*h - f*g + a + b + c + d + e + f + g + h + i + j + k + l
}

func main() int {
	return mix(3) + mix(-8)
}
