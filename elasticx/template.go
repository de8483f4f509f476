package elasticx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
)

// TemplateBody resolves src into a legacy index template body for index.
//
// src is either a path to a JSON or YAML file, a map, or raw JSON. The returned
// description names the source for logging. When the body has no index_patterns,
// index is used as the only pattern.
func TemplateBody(src any, index string) (body []byte, description string, err error) {
	switch s := src.(type) {
	case string:
		body, err = readTemplateFile(s)
		description = fmt.Sprintf("file %s", s)
	case map[string]any:
		body, err = json.Marshal(s)
		description = "passed map"
	case json.RawMessage:
		body = s
		description = "raw JSON"
	case []byte:
		body = s
		description = "raw JSON"
	default:
		return nil, "", errorx.InvalidArgumentErrorf("could not figure out how to treat index template of type %T", src).WithCause(ErrMissingTemplate)
	}
	if err != nil {
		return nil, "", err
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, "", errorx.InvalidArgumentErrorf("index template from %s is not a JSON object", description)
	}

	if !gjson.GetBytes(body, "index_patterns").Exists() {
		body, err = sjson.SetBytes(body, "index_patterns", []string{index})
		if err != nil {
			return nil, "", errorx.InternalErrorf("could not set index_patterns: %v", err).WithCause(err)
		}
	}

	return body, description, nil
}

func readTemplateFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("could not read index template %s: %v", path, err).
			WithCause(fmt.Errorf("%w: %w", ErrMissingTemplate, err))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		body, err := yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not parse index template %s: %v", path, err).WithCause(err)
		}
		return body, nil
	default:
		return raw, nil
	}
}

// PutTemplate registers the template resolved from src under the name index.
func PutTemplate(ctx context.Context, c Client, index string, src any, l *loggerx.Logger) error {
	body, description, err := TemplateBody(src, index)
	if err != nil {
		return err
	}

	if err := c.PutIndexTemplate(ctx, index, body); err != nil {
		return err
	}

	loggerx.OrDiscard(l).Debug(ctx, fmt.Sprintf("applied index template named '%s' from %s", index, description),
		attribute.String("index", index))

	return nil
}
