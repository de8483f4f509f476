// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package assertx

import (
	"encoding/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

type tHelper interface {
	Helper()
}

func PrettifyJSONPayload(t require.TestingT, payload interface{}) string {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	o, err := json.MarshalIndent(payload, "", "  ")
	require.NoError(t, err)
	return string(o)
}

// EqualAsJSON compares the JSON encodings of expected and actual.
// A string, []byte or json.RawMessage is taken as an already encoded document,
// so request bodies and raw responses compare against Go values directly.
func EqualAsJSON(t require.TestingT, expected, actual interface{}, args ...interface{}) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return EqualAsJSONExcept(t, expected, actual, nil, args...)
}

// EqualAsJSONExcept is EqualAsJSON with the sjson paths in except removed from both sides first.
func EqualAsJSONExcept(t require.TestingT, expected, actual interface{}, except []string, args ...interface{}) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	ebs := encode(t, expected)
	abs := encode(t, actual)
	if len(args) == 0 {
		args = []interface{}{abs}
	}

	var err error
	for _, k := range except {
		ebs, err = sjson.Delete(ebs, k)
		require.NoError(t, err, args...)

		abs, err = sjson.Delete(abs, k)
		require.NoError(t, err, args...)
	}

	return assert.JSONEq(t, ebs, abs, args...)
}

func encode(t require.TestingT, v interface{}) string {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	switch raw := v.(type) {
	case string:
		return raw
	case json.RawMessage:
		return string(raw)
	case []byte:
		return string(raw)
	}

	out, err := json.Marshal(v)
	require.NoError(t, err)
	return string(out)
}
