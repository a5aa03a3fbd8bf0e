//go:build unix && !linux

package alloc

import "golang.org/x/sys/unix"

func mapAnon(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// remapAnon maps a new region, copies, then unmaps the old one. Only Linux has
// mremap.
func remapAnon(old []byte, n int) ([]byte, error) {
	b, err := mapAnon(n)
	if err != nil {
		return nil, err
	}
	copy(b, old)
	if err := unix.Munmap(old); err != nil {
		_ = unix.Munmap(b)
		return nil, err
	}
	return b, nil
}

func unmapAnon(b []byte) error {
	return unix.Munmap(b)
}

func pageSize() int {
	return unix.Getpagesize()
}
