package assertx

import (
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// Equal compares expected and actual with go-cmp and fails with a -expected +actual diff.
// Unlike assert.Equal, nested values decoded from JSON are reported field by field.
func Equal(t assert.TestingT, expected, actual interface{}, opts ...cmp.Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		return assert.Fail(t, "Not equal (-expected +actual)", diff)
	}

	return true
}
