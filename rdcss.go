package ctrie

import "sync/atomic"

// rootSlot is the sum type held in Ctrie.root: either the live root iNode
// or an in-flight rdcssDescriptor describing a snapshot's root swap.
type rootSlot interface {
	isRootSlot()
}

func (*iNode) isRootSlot() {}

func (*rdcssDescriptor) isRootSlot() {}

// rdcssDescriptor is the restricted double-compare single-swap descriptor
// from spec.md 4.8: it conditions the root swap on the old root's main
// pointer still being the one that was observed when the snapshot began.
type rdcssDescriptor struct {
	old       *iNode
	expected  mainNode
	niu       *iNode
	committed atomic.Bool
}

// readRoot returns the current root iNode, helping any in-flight RDCSS
// descriptor to completion first. abort=true is used by readers that
// merely sample the root (such as the GCAS commit step) so that sampling
// alone never linearizes a snapshot boundary.
func (t *Ctrie) readRoot(abort bool) *iNode {
	for {
		box := t.root.Load()
		switch slot := (*box).(type) {
		case *iNode:
			return slot
		case *rdcssDescriptor:
			t.rdcssComplete(box, slot, abort)
		}
	}
}

// rdcssComplete is the helping routine for an in-flight descriptor: any
// thread that observes it in the root slot drives it to completion on
// behalf of its originator, which is how RDCSS stays lock-free. A failed
// CAS here simply means another helper already resolved the descriptor;
// the caller's surrounding readRoot loop re-reads and carries on.
func (t *Ctrie) rdcssComplete(box *rootSlot, d *rdcssDescriptor, abort bool) {
	if abort {
		var rs rootSlot = d.old
		t.root.CompareAndSwap(box, &rs)
		return
	}

	oldMain := t.gcasRead(d.old)
	if oldMain == d.expected {
		var rs rootSlot = d.niu
		if t.root.CompareAndSwap(box, &rs) {
			d.committed.Store(true)
		}
		return
	}

	var rs rootSlot = d.old
	t.root.CompareAndSwap(box, &rs)
}

// rdcss attempts to atomically swap the trie root from old to niu,
// conditioned on old.main still equaling expected. It linearizes at the
// CAS that swings the root from the descriptor to niu.
func (t *Ctrie) rdcss(old *iNode, expected mainNode, niu *iNode) bool {
	box := t.root.Load()
	if cur, ok := (*box).(*iNode); !ok || cur != old {
		return false
	}

	desc := &rdcssDescriptor{old: old, expected: expected, niu: niu}
	var descRS rootSlot = desc
	if !t.root.CompareAndSwap(box, &descRS) {
		return false
	}

	t.rdcssComplete(&descRS, desc, false)
	return desc.committed.Load()
}
