package orderbook

// priceLevel is the FIFO queue of resting orders at one price. Time priority
// within a level is arrival order; the list is never re-sorted.
type priceLevel struct {
	price      int64
	head       *Order
	tail       *Order
	totalQty   int64 // sum of Remaining over resting orders
	orderCount int
}

func (p *priceLevel) enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.totalQty += o.Remaining()
	p.orderCount++
}

func (p *priceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	p.totalQty -= o.Remaining()
	p.orderCount--
	if p.totalQty < 0 {
		p.totalQty = 0
	}
}

func (p *priceLevel) empty() bool {
	return p.head == nil
}
