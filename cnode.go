package ctrie

import "github.com/sirgallo/ctrie/internal/pool"

// withInserted returns a copy of c with newChild inserted at the slot
// addressed by flag, extending the dense children array by one.
// Grounded on the teacher's ExtendTable (Utils.go): the table is sized to
// popCount(bitmap) and the new entry is spliced in at its sorted position.
// p may be nil, in which case the backing array is freshly allocated.
func (c *cNode) withInserted(flag uint32, newChild branch, p *pool.NodePool[branch]) *cNode {
	pos := positionOf(c.bitmap, flag)
	newBitmap := c.bitmap | flag

	children := allocChildren(p, len(c.children)+1)
	copy(children[:pos], c.children[:pos])
	children[pos] = newChild
	copy(children[pos+1:], c.children[pos:])

	return &cNode{bitmap: newBitmap, children: children, gen: c.gen}
}

// withUpdated returns a copy of c with the child at pos replaced.
func (c *cNode) withUpdated(pos int, newChild branch, p *pool.NodePool[branch]) *cNode {
	children := allocChildren(p, len(c.children))
	copy(children, c.children)
	children[pos] = newChild

	return &cNode{bitmap: c.bitmap, children: children, gen: c.gen}
}

// withRemoved returns a copy of c with the slot addressed by flag removed,
// shrinking the dense children array by one. Grounded on the teacher's
// ShrinkTable (Utils.go).
func (c *cNode) withRemoved(flag uint32, p *pool.NodePool[branch]) *cNode {
	pos := positionOf(c.bitmap, flag)
	newBitmap := c.bitmap &^ flag

	children := allocChildren(p, len(c.children)-1)
	copy(children[:pos], c.children[:pos])
	copy(children[pos:], c.children[pos+1:])

	return &cNode{bitmap: newBitmap, children: children, gen: c.gen}
}

// atFlag returns the child stored at the slot addressed by flag and
// whether that slot is occupied.
func (c *cNode) atFlag(flag uint32) (branch, int, bool) {
	if c.bitmap&flag == 0 {
		return nil, 0, false
	}
	pos := positionOf(c.bitmap, flag)
	return c.children[pos], pos, true
}

// renewed returns a copy of c retagged to gen, with every child iNode
// deep-copied to gen via copyToGeneration. Singleton children are
// immutable and shared as-is across generations. Renewal is what makes
// snapshot copy-on-write lazy: a branch is only renewed when an operation
// on a mutable handle actually traverses it after a snapshot boundary (see
// trie.go).
func (c *cNode) renewed(gen *generation, t *Ctrie) *cNode {
	children := allocChildren(t.pool, len(c.children))
	for i, ch := range c.children {
		if sub, ok := ch.(*iNode); ok {
			children[i] = t.copyToGeneration(sub, gen)
		} else {
			children[i] = ch
		}
	}

	return &cNode{bitmap: c.bitmap, children: children, gen: gen}
}

// allocChildren returns a []branch of length n, drawing its backing array
// from p when a pool is configured and large enough, or allocating fresh
// otherwise.
func allocChildren(p *pool.NodePool[branch], n int) []branch {
	if p == nil {
		return make([]branch, n)
	}

	raw := p.Get()
	if cap(raw) < n {
		return make([]branch, n)
	}

	return raw[:n]
}
