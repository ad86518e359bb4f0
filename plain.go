package region

import (
	"fmt"
	"reflect"
	"sync"
)

// plainTypes caches the verdict per element type.
var plainTypes sync.Map // map[reflect.Type]bool

// checkPlain panics unless T is plain data: booleans, numbers, uintptr, and
// arrays or structs made only of those. Region memory is invisible to the
// garbage collector and Rewind only zero-fills, so a T holding pointers,
// strings, slices, maps, channels, funcs or interfaces would dangle.
func checkPlain[T any]() {
	t := reflect.TypeFor[T]()
	if ok, cached := plainTypes.Load(t); cached {
		if !ok.(bool) {
			panic(fmt.Sprintf("region: %v is not plain data", t))
		}
		return
	}
	ok := isPlain(t)
	plainTypes.Store(t, ok)
	if !ok {
		panic(fmt.Sprintf("region: %v is not plain data", t))
	}
}

// IsPlain reports whether values of T may be stored in region memory.
func IsPlain[T any]() bool {
	return isPlain(reflect.TypeFor[T]())
}

func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || isPlain(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
