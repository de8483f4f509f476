package pathx

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/clinia/elasticbud/errorx"
)

// Wildcard is the path segment that matches every element of a sequence.
const Wildcard = "*"

const separator = "."

var (
	ErrKeyNotFound           = errors.New("key not found")
	ErrWildcardOnNonSequence = errors.New("wildcard applied to a non-sequence value")
	errEmptyPath             = errorx.InvalidArgumentErrorf("path must have at least one segment")
)

// Path is an ordered list of segments, each a literal key or Wildcard.
type Path []string

// Parse builds a Path from its dotted form, e.g. "aggregations.top_pages.buckets.*.key".
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, errEmptyPath
	}

	segments := strings.Split(s, separator)
	for i, seg := range segments {
		if seg == "" {
			return nil, errorx.InvalidArgumentErrorf("path %q has an empty segment at position %d", s, i)
		}
	}

	return Path(segments), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, separator)
}
