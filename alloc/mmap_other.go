//go:build !unix

package alloc

func mapAnon(int) ([]byte, error) {
	return nil, ErrUnsupported
}

func remapAnon([]byte, int) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmapAnon([]byte) error {
	return ErrUnsupported
}

func pageSize() int {
	return 0
}
