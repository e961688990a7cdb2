package core

import "github.com/tidwall/btree"

// node is the stable positional handle for one resting order: it lives in
// exactly one price level's FIFO list and is what the order index points at.
// Unlinking a node never disturbs the handles of its siblings.
type node struct {
	order *Order

	level *level
	prev  *node
	next  *node
}

// level holds the orders resting at one price, in strict arrival order.
// A level never exists empty: it is created on first insert and removed the
// instant its last order leaves.
type level struct {
	price Price
	head  *node
	tail  *node
	total Quantity // sum of Remaining across resting orders
}

func (l *level) append(n *node) {
	n.level = l
	n.prev = l.tail
	n.next = nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.total += n.order.Remaining
}

func (l *level) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.level = nil, nil, nil
}

// bookSide keeps one side's price levels ordered by price. Best bid is the
// maximum key, best ask the minimum; depth walks the tree in priority order.
type bookSide struct {
	isBid  bool
	levels btree.Map[int64, *level]
}

func newBookSide(isBid bool) *bookSide {
	return &bookSide{isBid: isBid}
}

func (bs *bookSide) best() *level {
	if bs.isBid {
		if _, l, ok := bs.levels.Max(); ok {
			return l
		}
		return nil
	}
	if _, l, ok := bs.levels.Min(); ok {
		return l
	}
	return nil
}

func (bs *bookSide) getOrCreate(p Price) *level {
	if l, ok := bs.levels.Get(int64(p)); ok {
		return l
	}
	l := &level{price: p}
	bs.levels.Set(int64(p), l)
	return l
}

func (bs *bookSide) removeLevel(l *level) {
	bs.levels.Delete(int64(l.price))
}

// scanBest visits levels from best to worst until fn returns false.
func (bs *bookSide) scanBest(fn func(l *level) bool) {
	if bs.isBid {
		bs.levels.Reverse(func(_ int64, l *level) bool { return fn(l) })
		return
	}
	bs.levels.Scan(func(_ int64, l *level) bool { return fn(l) })
}
