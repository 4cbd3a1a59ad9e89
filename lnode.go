package ctrie

// lookup returns the value paired with key in the collision leaf, if any.
func (n *lNode) lookup(key []byte) (any, bool) {
	for _, p := range n.pairs {
		if bytesEqual(p.key, key) {
			return p.value, true
		}
	}
	return nil, false
}

// inserted returns a new collision leaf with key's pair set to value,
// replacing any existing pair for key.
func (n *lNode) inserted(key []byte, value any, hash uint32) *lNode {
	pairs := make([]kvPair, 0, len(n.pairs)+1)
	replaced := false
	for _, p := range n.pairs {
		if bytesEqual(p.key, key) {
			pairs = append(pairs, kvPair{key: key, value: value})
			replaced = true
		} else {
			pairs = append(pairs, p)
		}
	}
	if !replaced {
		pairs = append(pairs, kvPair{key: key, value: value})
	}

	return &lNode{hash: hash, pairs: pairs}
}

// removed returns the main node for a collision leaf with key's pair
// dropped: another collision leaf if >= 2 pairs remain, otherwise a tNode
// wrapping the sole remaining pair so the parent can compress it away.
func (n *lNode) removed(key []byte) mainNode {
	pairs := make([]kvPair, 0, len(n.pairs))
	for _, p := range n.pairs {
		if !bytesEqual(p.key, key) {
			pairs = append(pairs, p)
		}
	}

	if len(pairs) == 1 {
		return &tNode{hash: n.hash, key: pairs[0].key, value: pairs[0].value}
	}
	return &lNode{hash: n.hash, pairs: pairs}
}
