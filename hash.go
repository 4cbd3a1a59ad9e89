package ctrie

import (
	"math/bits"

	"github.com/sirgallo/ctrie/common/murmur"
)

// hashKey computes the 32 bit hash used to address key at the given trie
// level. The hash is reseeded every hashChunks levels, exactly as the
// teacher's CalculateHashForCurrentLevel reseeds murmur every 6 levels --
// this is what lets the trie address more than 32 bits worth of path
// beyond a single hash's 6 whole chunks before falling back to a
// collision leaf at maxBranchLevel.
func hashKey(key []byte, level int) uint32 {
	chunk := level / hashChunks
	seed := uint32(chunk + 1)
	return murmur.Murmur32(key, seed)
}

// chunkAt extracts the 5 bit index for level from hash, consuming 5 bits
// per level starting from the most significant chunk.
func chunkAt(hash uint32, level int) int {
	localLevel := level % hashChunks
	shift := 32 - (BitChunkSize * (localLevel + 1))
	mask := uint32(1<<BitChunkSize) - 1
	return int(hash>>uint(shift)) & int(mask)
}

// flagFor returns the single-bit bitmap flag for the index addressed at level.
func flagFor(hash uint32, level int) uint32 {
	return uint32(1) << uint(chunkAt(hash, level))
}

// popCount is the Hamming weight of a bitmap -- the number of occupied
// slots, and therefore the length of the dense children array.
func popCount(bitmap uint32) int {
	return bits.OnesCount32(bitmap)
}

// positionOf returns the dense array index of flag within bitmap: the
// count of set bits strictly below it.
func positionOf(bitmap uint32, flag uint32) int {
	return popCount(bitmap & (flag - 1))
}
