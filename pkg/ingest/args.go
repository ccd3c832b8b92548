package ingest

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidArgument reports an argument list whose shape cannot be loaded:
// no arguments, arguments of mixed types, or an unsupported type.
var ErrInvalidArgument = errors.New("invalid argument")

// Shape tells which field of a Result is populated.
type Shape int

const (
	ShapeSingle Shape = iota
	ShapeList
	ShapeNamed
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	case ShapeNamed:
		return "named"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

type argKind int

const (
	kindUnknown argKind = iota
	kindString
	kindList
	kindMap
)

func kindOf(arg any) argKind {
	switch arg.(type) {
	case string:
		return kindString
	case []string:
		return kindList
	case map[string]string:
		return kindMap
	default:
		return kindUnknown
	}
}

// request is the normalized form of a variadic argument list.
type request struct {
	shape Shape
	refs  []string
	// keys is parallel to refs for ShapeNamed.
	keys []string
}

// normalize accepts one of: a single string; several strings; one or more
// string slices (flattened in order); one or more string maps (merged, later
// keys win).
func normalize(fn string, args []any) (request, error) {
	if len(args) == 0 {
		return request{}, fmt.Errorf("%w: %s needs at least one argument", ErrInvalidArgument, fn)
	}

	kind := kindOf(args[0])
	for _, a := range args[1:] {
		if kindOf(a) != kind || kind == kindUnknown {
			return request{}, fmt.Errorf("%w: %s arguments must all be of the same type", ErrInvalidArgument, fn)
		}
	}

	switch kind {
	case kindString:
		refs := make([]string, len(args))
		for i, a := range args {
			refs[i] = a.(string)
		}
		if len(refs) == 1 {
			return request{shape: ShapeSingle, refs: refs}, nil
		}
		return request{shape: ShapeList, refs: refs}, nil

	case kindList:
		var refs []string
		for _, a := range args {
			refs = append(refs, a.([]string)...)
		}
		return request{shape: ShapeList, refs: refs}, nil

	case kindMap:
		merged := map[string]string{}
		for _, a := range args {
			maps.Copy(merged, a.(map[string]string))
		}
		keys := slices.Sorted(maps.Keys(merged))
		refs := make([]string, len(keys))
		for i, k := range keys {
			refs[i] = merged[k]
		}
		return request{shape: ShapeNamed, refs: refs, keys: keys}, nil

	default:
		return request{}, fmt.Errorf("%w: %s cannot load arguments of type %T", ErrInvalidArgument, fn, args[0])
	}
}
