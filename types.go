package ctrie

import (
	"sync/atomic"
)

// BitChunkSize is the number of bits of the 32 bit hash consumed per trie level.
// A chunk size of 5 gives a branching factor of 32 per internal node.
const BitChunkSize = 5

// hashChunks is the number of 5 bit chunks in a 32 bit hash before the hash
// must be reseeded and reused (32 / 5, rounded down -> 6 levels; the low 2
// bits are never consumed). Every further run of 6 levels uses a hash with
// the next seed (see hashKey).
const hashChunks = 32 / BitChunkSize

// maxBranchLevel is the level at which dualBranch stops branching: two keys
// still colliding there share a collision leaf instead of a deeper branch.
// Levels count one chunk each, so this is 30 levels, i.e. five reseed
// windows of hashChunks levels.
const maxBranchLevel = hashChunks * BitChunkSize

// generation is an opaque identity object. Two generations are equal only
// if they are the same pointer -- a generation is never compared by value
// and never mutated after it is minted. It is not zero-sized: Go may hand
// out the same address for every zero-size allocation, which would make
// all generations compare equal.
type generation struct{ _ byte }

func newGeneration() *generation {
	return &generation{}
}

// mainNode is the sum type of everything an iNode.main can point to.
// Every mainNode carries an auxiliary prev pointer used exclusively by the
// GCAS protocol (see gcas.go); it is nil once the node is committed.
type mainNode interface {
	prevPtr() *atomic.Pointer[mainNode]
}

// nodeHeader is embedded in every mainNode implementation to supply the
// GCAS auxiliary field without repeating it on each variant.
type nodeHeader struct {
	prev atomic.Pointer[mainNode]
}

func (h *nodeHeader) prevPtr() *atomic.Pointer[mainNode] {
	return &h.prev
}

// iNode is the sole mutable structural element of the trie: a mutation
// anchor pairing an atomically-updatable main pointer with an immutable
// generation tag.
type iNode struct {
	main atomic.Pointer[mainNode]
	gen  *generation
}

func newINode(main mainNode, gen *generation) *iNode {
	in := &iNode{gen: gen}
	in.main.Store(&main)
	return in
}

// loadMainBox returns the box pointer currently stored in in.main. Every
// CAS against in.main must be conditioned on a box pointer obtained this
// way (or handed down from a caller's own loadMainBox), never on a freshly
// boxed copy of a dereferenced value -- atomic.Pointer[T].CompareAndSwap
// compares the *T address itself, not the pointed-to content.
func (in *iNode) loadMainBox() *mainNode {
	return in.main.Load()
}

// casMain attempts to swing in.main from oldBox to niu. On success it
// returns the freshly installed box (so the caller can hand it straight
// to gcasCommit without an extra load); on failure it returns the box
// currently in place so the caller can inspect or retry against it.
func (in *iNode) casMain(oldBox *mainNode, niu mainNode) (*mainNode, bool) {
	newBox := &niu
	if in.main.CompareAndSwap(oldBox, newBox) {
		return newBox, true
	}
	return in.main.Load(), false
}

// branch is either a *singleton or an *iNode -- the two things a cNode's
// dense child array may hold at a given slot.
type branch interface{}

// singleton is an immutable (key, value, hash) triple held directly as a
// cNode child -- not a mainNode in its own right.
type singleton struct {
	hash  uint32
	key   []byte
	value any
}

// cNode is the branch main node: an immutable, once-published 32-slot
// addressable array compressed by a 32 bit occupancy bitmap.
type cNode struct {
	nodeHeader
	bitmap   uint32
	children []branch
	gen      *generation
}

// tNode marks an iNode as logically empty, pending parent-side compression.
// It is only ever observed as an iNode's main content, never as a cNode child.
type tNode struct {
	nodeHeader
	hash  uint32
	key   []byte
	value any
}

// lNode is a collision leaf: a bundle of >= 2 pairs sharing one 32 bit hash,
// used only at levels >= maxBranchLevel.
type lNode struct {
	nodeHeader
	hash  uint32
	pairs []kvPair
}

type kvPair struct {
	key   []byte
	value any
}

// failedNode wraps a previous main node to mark a rolled-back GCAS attempt;
// cooperative helpers observe it in prev and undo the write.
type failedNode struct {
	nodeHeader
	prevMain mainNode
}

func wrapFailed(prev mainNode) *failedNode {
	return &failedNode{prevMain: prev}
}

func newEmptyCNode(gen *generation) *cNode {
	return &cNode{bitmap: 0, children: nil, gen: gen}
}
