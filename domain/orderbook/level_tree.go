package orderbook

// levelTree is a red-black tree of price levels keyed by tick price. Bids and
// asks each hold one; best-of-book is the max (bids) or min (asks) node, so
// lookups stay O(log n) and best-level access never scans.

type nodeColor uint8

const (
	colorRed   nodeColor = 0
	colorBlack nodeColor = 1
)

type treeNode struct {
	key    int64
	level  *priceLevel
	color  nodeColor
	left   *treeNode
	right  *treeNode
	parent *treeNode
}

type levelTree struct {
	root *treeNode
	nil  *treeNode // sentinel (black)
	size int
}

func newLevelTree() *levelTree {
	sentinel := &treeNode{color: colorBlack}
	return &levelTree{root: sentinel, nil: sentinel}
}

func (t *levelTree) len() int { return t.size }

func (t *levelTree) find(price int64) *priceLevel {
	n := t.root
	for n != t.nil {
		switch {
		case price < n.key:
			n = n.left
		case price > n.key:
			n = n.right
		default:
			return n.level
		}
	}
	return nil
}

// upsert returns the level at price, creating it if absent.
func (t *levelTree) upsert(price int64) *priceLevel {
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		if price < x.key {
			x = x.left
		} else if price > x.key {
			x = x.right
		} else {
			return x.level
		}
	}

	pl := &priceLevel{price: price}
	z := &treeNode{
		key:    price,
		level:  pl,
		color:  colorRed,
		left:   t.nil,
		right:  t.nil,
		parent: y,
	}

	if y == t.nil {
		t.root = z
	} else if z.key < y.key {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return pl
}

func (t *levelTree) delete(price int64) bool {
	z := t.searchNode(price)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *levelTree) min() *priceLevel {
	n := t.minNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.level
}

func (t *levelTree) max() *priceLevel {
	n := t.maxNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.level
}

func (t *levelTree) ascend(fn func(*priceLevel) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

func (t *levelTree) descend(fn func(*priceLevel) bool) {
	for n := t.maxNode(t.root); n != t.nil; n = t.prev(n) {
		if !fn(n.level) {
			return
		}
	}
}

/******************** Internal helpers ********************/

func (t *levelTree) searchNode(price int64) *treeNode {
	n := t.root
	for n != t.nil {
		if price < n.key {
			n = n.left
		} else if price > n.key {
			n = n.right
		} else {
			return n
		}
	}
	return t.nil
}

func (t *levelTree) minNode(n *treeNode) *treeNode {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *levelTree) maxNode(n *treeNode) *treeNode {
	if n == t.nil {
		return t.nil
	}
	for n.right != t.nil {
		n = n.right
	}
	return n
}

func (t *levelTree) next(n *treeNode) *treeNode {
	if n == nil || n == t.nil {
		return t.nil
	}
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *levelTree) prev(n *treeNode) *treeNode {
	if n == nil || n == t.nil {
		return t.nil
	}
	if n.left != t.nil {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *levelTree) leftRotate(x *treeNode) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *levelTree) rightRotate(y *treeNode) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *levelTree) insertFixup(z *treeNode) {
	for z.parent.color == colorRed {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == colorRed {
				z.parent.color = colorBlack
				y.color = colorBlack
				z.parent.parent.color = colorRed
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = colorBlack
				z.parent.parent.color = colorRed
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == colorRed {
				z.parent.color = colorBlack
				y.color = colorBlack
				z.parent.parent.color = colorRed
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = colorBlack
				z.parent.parent.color = colorRed
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = colorBlack
}

func (t *levelTree) transplant(u, v *treeNode) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *levelTree) deleteNode(z *treeNode) {
	y := z
	yOrigColor := y.color
	var x *treeNode

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == colorBlack {
		t.deleteFixup(x)
	}
}

func (t *levelTree) deleteFixup(x *treeNode) {
	for x != t.root && x.color == colorBlack {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == colorRed {
				w.color = colorBlack
				x.parent.color = colorRed
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == colorBlack && w.right.color == colorBlack {
				w.color = colorRed
				x = x.parent
			} else {
				if w.right.color == colorBlack {
					w.left.color = colorBlack
					w.color = colorRed
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = colorBlack
				w.right.color = colorBlack
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == colorRed {
				w.color = colorBlack
				x.parent.color = colorRed
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == colorBlack && w.left.color == colorBlack {
				w.color = colorRed
				x = x.parent
			} else {
				if w.left.color == colorBlack {
					w.right.color = colorBlack
					w.color = colorRed
					t.leftRotate(x.parent)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = colorBlack
				w.left.color = colorBlack
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = colorBlack
}
