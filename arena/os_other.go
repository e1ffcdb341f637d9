//go:build !unix

package arena

// Without mmap the pool falls back to the Go heap. Blocks are reclaimed by
// the garbage collector once the arena drops them.

func osAlloc(n int) []byte {
	return make([]byte, n)
}

func osFree(b []byte) {}
