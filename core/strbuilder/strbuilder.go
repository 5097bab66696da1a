package strbuilder

type llist struct {
	s    []byte
	next *llist
}

// Builder collects text in a linked list of chunks and joins them
// with a single allocation at the end.
type Builder struct {
	head *llist
	curr *llist
	size int
}

func (this *Builder) Place(s string) {
	new := &llist{
		s:    []byte(s),
		next: nil,
	}
	if this.curr != nil {
		this.curr.next = new
	}
	this.curr = new
	if this.head == nil {
		this.head = new
	}
	this.size += len(new.s)
}

func (this *Builder) Placeln(parts ...string) {
	for _, p := range parts {
		this.Place(p)
	}
	this.Place("\n")
}

func (this *Builder) String() string {
	buff := make([]byte, this.size)
	index := 0
	curr := this.head
	for curr != nil {
		copy(buff[index:], curr.s)
		index += len(curr.s)
		curr = curr.next
	}
	return string(buff)
}
