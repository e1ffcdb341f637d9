//go:build unix

package arena

import (
	"golang.org/x/sys/unix"

	"github.com/hookk/amorph/diag"
)

// osAlloc maps n bytes of anonymous memory. n must be a multiple of the
// page size. Failure is fatal.
func osAlloc(n int) []byte {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		diag.Fatalf("arena: mmap of %d bytes failed: %v", n, err)
		return nil
	}
	return b
}

// osFree unmaps a block returned by osAlloc. b must be the exact slice
// osAlloc returned.
func osFree(b []byte) {
	if err := unix.Munmap(b); err != nil {
		diag.Fatalf("arena: munmap of %d bytes failed: %v", len(b), err)
	}
}
