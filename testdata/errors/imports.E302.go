package prog

import "fmt"

func main() int {
	fmt.Println("hi")
	return 0
}
