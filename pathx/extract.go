package pathx

import (
	"iter"

	"github.com/clinia/elasticbud/errorx"
)

type frame struct {
	node  any
	depth int
}

// Extract walks tree along path and yields every matched value.
//
// Values are produced lazily in input order: sequence elements first, then the
// values found inside each of them. A literal segment that is absent from a map,
// or applied to anything but a map, yields a KeyNotFound error. A wildcard applied
// to anything but a sequence yields a WildcardOnNonSequence error. An error ends
// the sequence; values matched before it have already been yielded.
//
// Neither tree nor path is modified.
func Extract(tree any, path Path) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if len(path) == 0 {
			yield(nil, errEmptyPath)
			return
		}

		last := len(path) - 1
		stack := []frame{{node: tree}}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			seg := path[f.depth]
			if seg == Wildcard {
				elems, ok := f.node.([]any)
				if !ok {
					yield(nil, wildcardError(path, f.depth, f.node))
					return
				}

				if f.depth == last {
					for _, e := range elems {
						if !yield(e, nil) {
							return
						}
					}
					continue
				}

				// Reverse push keeps the first element on top.
				for i := len(elems) - 1; i >= 0; i-- {
					stack = append(stack, frame{node: elems[i], depth: f.depth + 1})
				}
				continue
			}

			m, ok := f.node.(map[string]any)
			if !ok {
				yield(nil, keyError(path, f.depth))
				return
			}
			child, ok := m[seg]
			if !ok {
				yield(nil, keyError(path, f.depth))
				return
			}

			if f.depth == last {
				if !yield(child, nil) {
					return
				}
				continue
			}
			stack = append(stack, frame{node: child, depth: f.depth + 1})
		}
	}
}

// Collect drains Extract into a slice.
func Collect(tree any, path Path) ([]any, error) {
	values := []any{}
	for v, err := range Extract(tree, path) {
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func keyError(path Path, depth int) error {
	return errorx.NotFoundErrorf("key %q not found at %q", path[depth], path[:depth].String()).WithCause(ErrKeyNotFound)
}

func wildcardError(path Path, depth int, node any) error {
	return errorx.InvalidArgumentErrorf("wildcard at %q applied to %T, expected a sequence", path[:depth+1].String(), node).WithCause(ErrWildcardOnNonSequence)
}
