package ctrie

// copyToGeneration allocates a fresh I-node at gen pointing at in's current
// main content. It does not recurse into in's children -- renewal is lazy,
// so a deeper branch is only copied when a writer actually traverses down
// to it after the generation boundary.
func (t *Ctrie) copyToGeneration(in *iNode, gen *generation) *iNode {
	main := t.gcasRead(in)
	return newINode(main, gen)
}
