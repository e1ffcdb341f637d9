//go:build linux

package arena

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hookk/amorph/diag"
)

// MPOL_INTERLEAVE from linux/mempolicy.h.
const mpolInterleave = 3

// interleave asks the kernel to stripe the physical pages of b round-robin
// across the NUMA nodes the process is allowed to use. Best effort: on
// kernels or machines that reject the request the block stays first-touch,
// which is correct but concentrates bandwidth on one node.
func interleave(b []byte) {
	if len(b) == 0 {
		return
	}
	// All-ones node mask: interleave over every node the process may
	// allocate on. Some kernels reject bits for nonexistent nodes, which
	// lands on the warn path below.
	var mask [16]uint64
	for i := range mask {
		mask[i] = ^uint64(0)
	}
	maxnode := uintptr(len(mask)*64 + 1)
	_, _, errno := unix.Syscall6(unix.SYS_MBIND,
		uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)),
		mpolInterleave,
		uintptr(unsafe.Pointer(&mask[0])), maxnode, 0)
	if errno != 0 {
		diag.Warnf("arena: mbind interleave of %d bytes failed: %v", len(b), errno)
	}
}
