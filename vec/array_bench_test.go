package vec

import (
	"testing"

	"github.com/joshuapare/rawvec/alloc"
)

func BenchmarkArray_Append(b *testing.B) {
	for _, name := range alloc.Names() {
		backend, err := alloc.ByName(name)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				arr := New[uint64](backend)
				for i := range 4096 {
					if err := arr.Append(uint64(i)); err != nil {
						b.Fatal(err)
					}
				}
				arr.Release()
			}
		})
	}
}

// BenchmarkSlice_Append is the builtin append baseline.
func BenchmarkSlice_Append(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		var s []uint64
		for i := range 4096 {
			s = append(s, uint64(i))
		}
		_ = s
	}
}

func BenchmarkArray_Get(b *testing.B) {
	arr := New[uint64](nil)
	defer arr.Release()
	for i := range 4096 {
		if err := arr.Append(uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
	var sum uint64
	for b.Loop() {
		for i := range 4096 {
			v, _ := arr.Get(i)
			sum += v
		}
	}
	_ = sum
}
