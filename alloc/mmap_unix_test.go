//go:build unix

package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMmap_PageAligned(t *testing.T) {
	l := Layout{Size: 100, Align: 8}
	p, err := Mmap.Allocate(l)
	require.NoError(t, err)
	defer Mmap.Free(p, l)

	assert.Zero(t, uintptr(p)%uintptr(unix.Getpagesize()), "mappings start on a page boundary")
	for i, v := range unsafe.Slice((*byte)(p), l.Size) {
		require.Zero(t, v, "byte %d of a fresh mapping", i)
	}
}

func TestMmap_RejectsOverPageAlignment(t *testing.T) {
	ps := uintptr(unix.Getpagesize())
	_, err := Mmap.Allocate(Layout{Size: 64, Align: ps * 2})
	require.ErrorIs(t, err, ErrInvalidLayout)
}

func TestMmap_FreeUnknownIsIgnored(t *testing.T) {
	var x [16]byte
	assert.NotPanics(t, func() {
		Mmap.Free(unsafe.Pointer(&x[0]), Layout{Size: 16, Align: 1})
	})
	assert.NotPanics(t, func() {
		Mmap.Free(nil, Layout{Size: 16, Align: 1})
	})
}
