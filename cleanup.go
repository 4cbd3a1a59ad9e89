package ctrie

// clean is the parent-side repair operation: it GCAS-reads parent's main
// and, if it is a branch, replaces it with its compressed form. Failure is
// ignored -- best-effort and idempotent, a later traversal retriggers it.
func (t *Ctrie) clean(parent *iNode, level int) {
	if parent == nil {
		return
	}

	box := parent.loadMainBox()
	main := *box
	c, ok := main.(*cNode)
	if !ok {
		return
	}

	compressed := t.compress(c, level)
	if !t.gcasWrite(parent, box, compressed) {
		t.log.Debug("clean: gcas contended at level", level)
	}
}

// compress walks a branch's children, resurrecting any child I-node whose
// main has become a tNode into the equivalent singleton, then contracts
// the result.
func (t *Ctrie) compress(c *cNode, level int) mainNode {
	children := allocChildren(t.pool, len(c.children))
	for i, ch := range c.children {
		switch sub := ch.(type) {
		case *iNode:
			main := t.gcasRead(sub)
			if tomb, ok := main.(*tNode); ok {
				children[i] = &singleton{hash: tomb.hash, key: tomb.key, value: tomb.value}
			} else {
				children[i] = ch
			}
		default:
			children[i] = ch
		}
	}

	resurrected := &cNode{bitmap: c.bitmap, children: children, gen: c.gen}
	return t.contract(resurrected, level)
}

// cleanParent re-descends from parent to confirm its slot still maps to
// nonLive; if nonLive's main is a tNode, it GCASes parent to a contracted
// branch with that slot replaced by the tNode's singleton. It retries while
// the root still belongs to startGen and the GCAS is contended, restoring
// the recursive retry the source dropped.
func (t *Ctrie) cleanParent(hash uint32, level int, nonLive *iNode, parent *iNode, startGen *generation) {
	box := parent.loadMainBox()
	main := *box
	c, ok := main.(*cNode)
	if !ok {
		return
	}

	flag := flagFor(hash, level)
	child, pos, occupied := c.atFlag(flag)
	if !occupied {
		return
	}

	sub, ok := child.(*iNode)
	if !ok || sub != nonLive {
		return
	}

	subMain := t.gcasRead(sub)
	tomb, ok := subMain.(*tNode)
	if !ok {
		return
	}

	updated := c.withUpdated(pos, &singleton{hash: tomb.hash, key: tomb.key, value: tomb.value}, t.pool)
	contracted := t.contract(updated, level)

	if t.gcasWrite(parent, box, contracted) {
		return
	}

	root := t.readRoot(true)
	if root != nil && root.gen == startGen {
		t.log.Debug("cleanParent: retrying contended compression at level", level)
		t.cleanParent(hash, level, nonLive, parent, startGen)
	}
}
