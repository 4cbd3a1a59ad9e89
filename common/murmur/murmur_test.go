package murmur

import "testing"

func TestMurmur32Deterministic(t *testing.T) {
	key := []byte("hello")
	seed := uint32(1)

	a := Murmur32(key, seed)
	b := Murmur32(key, seed)

	if a != b {
		t.Fatalf("expected deterministic hash, got %d and %d", a, b)
	}
}

func TestMurmur32SeedChangesHash(t *testing.T) {
	key := []byte("hello")

	h1 := Murmur32(key, 1)
	h2 := Murmur32(key, 2)

	if h1 == h2 {
		t.Fatalf("expected different seeds to (almost certainly) produce different hashes")
	}
}

func TestMurmur32HandlesAllRemainderLengths(t *testing.T) {
	for n := 0; n < 8; n++ {
		key := make([]byte, n)
		for i := range key {
			key[i] = byte(i + 1)
		}

		_ = Murmur32(key, 0)
	}
}
