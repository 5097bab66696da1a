/*
|   Stack frame     |    Address
|-------------------|----------------------------
| Return Address    | <- ARP + 8
| Caller ARP        | <- ARP (rbp)
| CalleeSaved#0     | <- ARP - 8
| ...               |
| CalleeSaved#N     | <- ARP - (8 + N*8)
| Spill#0           | <- ARP - (8 + #saved*8)
| ...               |
| Spill#N           | <- ARP - (8 + #saved*8 + N*8)
| call saves        | pushed and popped around calls,
| mul/div saves     | multiplications, divisions and
| phi copies        | parallel phi copies
*/
package stack

const slot = 8

func Spill(numSaved, i int) int {
	return -(slot + numSaved*slot + i*slot)
}

// Reserve is how much the prologue subtracts from rsp for spills
func Reserve(numSpills int) int {
	return numSpills * slot
}
