//go:build linux

package alloc

import "golang.org/x/sys/unix"

func mapAnon(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// remapAnon grows or shrinks in place when the kernel can, and moves the pages
// otherwise. No bytes are copied in user space.
func remapAnon(old []byte, n int) ([]byte, error) {
	return unix.Mremap(old, n, unix.MREMAP_MAYMOVE)
}

func unmapAnon(b []byte) error {
	return unix.Munmap(b)
}

func pageSize() int {
	return unix.Getpagesize()
}
