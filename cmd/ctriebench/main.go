package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirgallo/ctrie"
)

// ctriebench drives a mixed insert/remove/lookup workload against the core
// and reports throughput plus a final exact-vs-atomic size comparison.
// Promoted from the kind of ad hoc debug tooling the teacher keeps
// alongside the trie itself, but wired up as a runnable command so the
// whole stack -- GCAS, RDCSS, cleanup, traversal -- gets exercised end to
// end under real concurrency.
func main() {
	workers := flag.Int("workers", 8, "number of concurrent workers")
	duration := flag.Duration("duration", 3*time.Second, "how long to run the workload")
	keyspace := flag.Int("keyspace", 100000, "number of distinct keys to operate over")
	flag.Parse()

	t := ctrie.New()

	var ops atomic.Int64
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))

			for {
				select {
				case <-stop:
					return
				default:
				}

				key := []byte(fmt.Sprintf("key-%d", rnd.Intn(*keyspace)))
				switch {
				case rnd.Float64() < 0.50:
					t.Insert(key, rnd.Int(), false)
				case rnd.Float64() < 0.75:
					t.Remove(key, nil, false)
				default:
					t.Lookup(key)
				}
				ops.Add(1)
			}
		}(int64(w) + 1)
	}

	time.Sleep(*duration)
	close(stop)
	wg.Wait()

	snap := t.Snapshot(true)
	cur, err := snap.Traverse()
	if err != nil {
		fmt.Println("traverse error:", err)
		return
	}

	exact := 0
	for {
		_, _, ok := cur.Next()
		if !ok {
			break
		}
		exact++
	}

	fmt.Printf("ops: %d (%.0f ops/sec)\n", ops.Load(), float64(ops.Load())/duration.Seconds())
	fmt.Printf("size (atomic counter): %d\n", t.Size())
	fmt.Printf("size (exact traversal): %d\n", exact)
}
