package ctrie

import (
	"sync/atomic"

	"github.com/sirgallo/logger"

	"github.com/sirgallo/ctrie/internal/pool"
)

var cLog = logger.NewCustomLog("ctrie")

// result is the outcome of a lookup/insert/remove descent, distinguishing
// "absent" from "present with a nil value" without using the value itself
// as a sentinel.
type result struct {
	value any
	ok    bool
}

// Ctrie is the core lock-free, ordered hash-array-mapped trie: a thread-safe
// mutable key/value mapping with O(1) atomic lock-free snapshots, built
// around the GCAS and RDCSS protocols.
type Ctrie struct {
	root     atomic.Pointer[rootSlot]
	readOnly bool
	size     atomic.Int64
	log      *logger.Log
	pool     *pool.NodePool[branch]
}

// New returns an empty Ctrie at a fresh generation.
func New(opts ...Option) *Ctrie {
	cfg := newConfig(opts...)

	gen := newGeneration()
	in := newINode(newEmptyCNode(gen), gen)

	t := &Ctrie{log: cLog, pool: cfg.pool}
	if cfg.log != nil {
		t.log = cfg.log
	}

	var rs rootSlot = in
	t.root.Store(&rs)

	return t
}

// Lookup returns the value stored under key and whether it was present.
func (t *Ctrie) Lookup(key []byte) (any, bool) {
	for {
		root := t.readRoot(false)
		res, restart := t.lookupINode(root, key, 0, nil, root.gen)
		if restart {
			continue
		}
		return res.value, res.ok
	}
}

// lookupINode descends a single level into in, returning RESTART via the
// second return value when cooperative repair requires the caller to
// retry the whole operation from the root.
func (t *Ctrie) lookupINode(in *iNode, key []byte, level int, parent *iNode, startGen *generation) (result, bool) {
	main := t.gcasRead(in)

	switch n := main.(type) {
	case *cNode:
		hash := hashKey(key, level)
		flag := flagFor(hash, level)
		child, _, occupied := n.atFlag(flag)
		if !occupied {
			return result{}, false
		}

		switch c := child.(type) {
		case *singleton:
			if c.hash == hash && bytesEqual(c.key, key) {
				return result{value: c.value, ok: true}, false
			}
			return result{}, false
		case *iNode:
			if c.gen == startGen || t.readOnly {
				return t.lookupINode(c, key, level+1, in, startGen)
			}
			niu := n.renewed(startGen, t)
			if _, ok := in.casMain(in.loadMainBox(), niu); !ok {
				t.releaseDiscarded(niu)
				return result{}, true
			}
			return t.lookupINode(in, key, level, parent, startGen)
		default:
			return result{}, false
		}

	case *tNode:
		if t.readOnly {
			hash := hashKey(key, level)
			if n.hash == hash && bytesEqual(n.key, key) {
				return result{value: n.value, ok: true}, false
			}
			return result{}, false
		}
		t.clean(parent, level-1)
		return result{}, true

	case *lNode:
		for _, p := range n.pairs {
			if bytesEqual(p.key, key) {
				return result{value: p.value, ok: true}, false
			}
		}
		return result{}, false

	default:
		return result{}, false
	}
}

// Insert writes key -> value. When onlyIfAbsent is true and key already has
// a value, the existing value is returned unchanged and no write occurs.
func (t *Ctrie) Insert(key []byte, value any, onlyIfAbsent bool) (prev any, hadPrev bool) {
	if t.readOnly {
		t.log.Debug(NewReadOnlyError().Error())
		return nil, false
	}

	for {
		root := t.readRoot(false)
		prevVal, hadPrevVal, restart := t.insertINode(root, key, value, 0, nil, root.gen, onlyIfAbsent)
		if restart {
			continue
		}
		if !hadPrevVal {
			t.size.Add(1)
		}
		return prevVal, hadPrevVal
	}
}

func (t *Ctrie) insertINode(in *iNode, key []byte, value any, level int, parent *iNode, startGen *generation, onlyIfAbsent bool) (any, bool, bool) {
	box := in.loadMainBox()
	main := *box

	switch n := main.(type) {
	case *cNode:
		hash := hashKey(key, level)
		flag := flagFor(hash, level)
		child, pos, occupied := n.atFlag(flag)

		if !occupied {
			branchNode := n
			if n.gen != startGen {
				branchNode = n.renewed(startGen, t)
			}
			updated := branchNode.withInserted(flag, &singleton{hash: hash, key: key, value: value}, t.pool)
			if !t.gcasWrite(in, box, updated) {
				return nil, false, true
			}
			return nil, false, false
		}

		switch c := child.(type) {
		case *iNode:
			if c.gen == startGen || t.readOnly {
				return t.insertINode(c, key, value, level+1, in, startGen, onlyIfAbsent)
			}
			niu := n.renewed(startGen, t)
			if _, ok := in.casMain(box, niu); !ok {
				return nil, false, true
			}
			return nil, false, true

		case *singleton:
			if c.hash == hash && bytesEqual(c.key, key) {
				if onlyIfAbsent {
					return c.value, true, false
				}
				branchNode := n
				if n.gen != startGen {
					branchNode = n.renewed(startGen, t)
				}
				updated := branchNode.withUpdated(pos, &singleton{hash: hash, key: key, value: value}, t.pool)
				if !t.gcasWrite(in, box, updated) {
					return nil, false, true
				}
				return c.value, true, false
			}

			dual := t.dualBranch(c, &singleton{hash: hash, key: key, value: value}, level+1, startGen)
			branchNode := n
			if n.gen != startGen {
				branchNode = n.renewed(startGen, t)
			}
			updated := branchNode.withUpdated(pos, dual, t.pool)
			if !t.gcasWrite(in, box, updated) {
				return nil, false, true
			}
			return nil, false, false

		default:
			return nil, false, true
		}

	case *tNode:
		t.clean(parent, level-1)
		return nil, false, true

	case *lNode:
		hash := hashKey(key, level)
		if existing, ok := n.lookup(key); ok && onlyIfAbsent {
			return existing, true, false
		}
		niu := n.inserted(key, value, hash)
		if !t.gcasWrite(in, box, niu) {
			return nil, false, true
		}
		prev, had := n.lookup(key)
		return prev, had, false

	default:
		return nil, false, true
	}
}

// dualBranch builds the replacement for a singleton slot that now must hold
// two colliding singletons: a nested branch one level deeper, recursing
// until their hashes diverge, or a collision leaf once level >= maxBranchLevel.
func (t *Ctrie) dualBranch(existing *singleton, incoming *singleton, level int, gen *generation) branch {
	if level >= maxBranchLevel {
		return newINode(&lNode{pairs: []kvPair{
			{key: existing.key, value: existing.value},
			{key: incoming.key, value: incoming.value},
		}, hash: existing.hash}, gen)
	}

	// Both singletons now live at level, so they carry the hash for that
	// level's seed; lookups at this level compare against the same hash.
	existing = &singleton{hash: hashKey(existing.key, level), key: existing.key, value: existing.value}
	incoming = &singleton{hash: hashKey(incoming.key, level), key: incoming.key, value: incoming.value}

	existingFlag := flagFor(existing.hash, level)
	incomingFlag := flagFor(incoming.hash, level)

	if existingFlag == incomingFlag {
		sub := t.dualBranch(existing, incoming, level+1, gen)
		branchNode := newEmptyCNode(gen).withInserted(existingFlag, sub, t.pool)
		return newINode(branchNode, gen)
	}

	var branchNode *cNode
	if existingFlag < incomingFlag {
		branchNode = newEmptyCNode(gen).withInserted(existingFlag, existing, t.pool).withInserted(incomingFlag, incoming, t.pool)
	} else {
		branchNode = newEmptyCNode(gen).withInserted(incomingFlag, incoming, t.pool).withInserted(existingFlag, existing, t.pool)
	}
	return newINode(branchNode, gen)
}

// Remove deletes key, optionally conditioned on the current value matching
// witness. It returns the removed value and whether removal occurred.
func (t *Ctrie) Remove(key []byte, witness any, hasWitness bool) (any, bool) {
	if t.readOnly {
		t.log.Debug(NewReadOnlyError().Error())
		return nil, false
	}

	for {
		root := t.readRoot(false)
		removed, ok, restart := t.removeINode(root, key, 0, nil, root.gen, witness, hasWitness)
		if restart {
			continue
		}
		if ok {
			t.size.Add(-1)
		}
		return removed, ok
	}
}

func (t *Ctrie) removeINode(in *iNode, key []byte, level int, parent *iNode, startGen *generation, witness any, hasWitness bool) (any, bool, bool) {
	box := in.loadMainBox()
	main := *box

	switch n := main.(type) {
	case *cNode:
		hash := hashKey(key, level)
		flag := flagFor(hash, level)
		child, _, occupied := n.atFlag(flag)
		if !occupied {
			return nil, false, false
		}

		switch c := child.(type) {
		case *iNode:
			if c.gen == startGen || t.readOnly {
				return t.removeINode(c, key, level+1, in, startGen, witness, hasWitness)
			}
			niu := n.renewed(startGen, t)
			if _, ok := in.casMain(box, niu); !ok {
				return nil, false, true
			}
			return nil, false, true

		case *singleton:
			if c.hash != hash || !bytesEqual(c.key, key) {
				return nil, false, false
			}
			if hasWitness && !valuesEqual(c.value, witness) {
				return nil, false, false
			}

			branchNode := n
			if n.gen != startGen {
				branchNode = n.renewed(startGen, t)
			}
			contracted := t.contract(branchNode.withRemoved(flag, t.pool), level)
			if !t.gcasWrite(in, box, contracted) {
				return nil, false, true
			}

			if parent != nil {
				if _, ok := contracted.(*tNode); ok {
					t.cleanParent(hash, level-1, in, parent, startGen)
				}
			}
			return c.value, true, false

		default:
			return nil, false, true
		}

	case *tNode:
		t.clean(parent, level-1)
		return nil, false, true

	case *lNode:
		existing, had := n.lookup(key)
		if !had {
			return nil, false, false
		}
		if hasWitness && !valuesEqual(existing, witness) {
			return nil, false, false
		}

		niu := n.removed(key)
		if !t.gcasWrite(in, box, niu) {
			return nil, false, true
		}
		return existing, true, false

	default:
		return nil, false, true
	}
}

// contract reduces a branch with exactly one singleton child at a level > 0
// to a tNode, so the parent can absorb it on the next cleanup pass.
func (t *Ctrie) contract(c *cNode, level int) mainNode {
	if level > 0 && len(c.children) == 1 {
		if s, ok := c.children[0].(*singleton); ok {
			return &tNode{hash: s.hash, key: s.key, value: s.value}
		}
	}
	return c
}

// Snapshot mints a fresh generation and RDCSS-installs a new root I-node
// over the same main content, returning a new handle. Writers on either
// handle incur lazy renewal along their write paths from here on.
func (t *Ctrie) Snapshot(readOnly bool) *Ctrie {
	for {
		root := t.readRoot(false)
		main := t.gcasRead(root)

		niuForOriginal := newINode(main, newGeneration())

		if t.rdcss(root, main, niuForOriginal) {
			niuForSnapshot := newINode(main, newGeneration())

			snap := &Ctrie{readOnly: readOnly, log: t.log, pool: t.pool}
			var rs rootSlot = niuForSnapshot
			snap.root.Store(&rs)
			snap.size.Store(t.size.Load())
			return snap
		}
	}
}

// Size returns the atomic, convergent-under-restarts entry count: it is
// mutated once per net new key on Insert/Remove, not recomputed by
// traversal.
func (t *Ctrie) Size() int64 {
	return t.size.Load()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	return a == b
}
