package vec

import (
	"fmt"
	"reflect"
	"sync"
)

// Dropper is implemented by element types that must run code when the Array
// holding them is released. Drop is called on each initialized slot exactly
// once, in index order.
type Dropper interface {
	Drop()
}

// pointerFree caches hasPointers results per element type.
var pointerFree sync.Map // reflect.Type -> bool

// mustBePointerFree panics when t can hold a Go pointer. Buffers are untyped
// memory the garbage collector does not scan.
func mustBePointerFree(t reflect.Type) {
	if ok, cached := pointerFree.Load(t); cached {
		if !ok.(bool) {
			panic(fmt.Sprintf("vec: element type %v contains pointers", t))
		}
		return
	}
	ok := !hasPointers(t)
	pointerFree.Store(t, ok)
	if !ok {
		panic(fmt.Sprintf("vec: element type %v contains pointers", t))
	}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointer, UnsafePointer, String, Slice, Map, Chan, Func, Interface.
		return true
	}
}
