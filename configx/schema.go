// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/ory/jsonschema/v3"
)

func newCompiler(schema []byte) (string, *jsonschema.Compiler, error) {
	id := gjson.GetBytes(schema, "$id").String()
	if id == "" {
		id = fmt.Sprintf("%s.json", uuid.Must(uuid.NewRandom()).String())
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewBuffer(schema)); err != nil {
		return "", nil, errors.WithStack(err)
	}

	// DO NOT REMOVE THIS
	compiler.ExtractAnnotations = true

	return id, compiler, nil
}

func compileSchema(ctx context.Context, schema []byte) (*jsonschema.Schema, error) {
	id, compiler, err := newCompiler(schema)
	if err != nil {
		return nil, err
	}

	s, err := compiler.Compile(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s, nil
}

// schemaTypes returns the JSON types allowed for a top-level or nested property, in declaration order.
func schemaTypes(schema []byte, key string) []string {
	path := "properties." + strings.Join(strings.Split(key, "."), ".properties.") + ".type"
	t := gjson.GetBytes(schema, path)

	if t.IsArray() {
		var types []string
		for _, v := range t.Array() {
			types = append(types, v.String())
		}
		return types
	}

	if t.Exists() {
		return []string{t.String()}
	}
	return nil
}
