package configx

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/ory/jsonschema/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
)

const delimiter = "."

type tuple struct {
	Key   string
	Value interface{}
}

// Provider resolves configuration once from, in increasing priority: base values,
// config files, environment variables, flags and forced values. The merged result
// is validated against a JSON schema.
type Provider struct {
	*koanf.Koanf

	schema []byte

	files             []string
	flags             *pflag.FlagSet
	envPrefix         string
	envAliases        map[string]string
	flagAliases       map[string]string
	disableEnvLoading bool
	skipValidation    bool
	baseValues        []tuple
	forcedValues      []tuple
	userProviders     []koanf.Provider

	logger *loggerx.Logger
}

// New loads the configuration described by schema.
func New(ctx context.Context, schema []byte, modifiers ...OptionModifier) (*Provider, error) {
	p := &Provider{
		schema:      schema,
		envAliases:  map[string]string{},
		flagAliases: map[string]string{},
	}
	for _, m := range modifiers {
		m(p)
	}
	p.logger = loggerx.OrDiscard(p.logger)

	k, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.Koanf = k

	if p.skipValidation {
		return p, nil
	}

	if err := p.validate(ctx, k); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) load(ctx context.Context) (*koanf.Koanf, error) {
	k := koanf.New(delimiter)

	base := make(map[string]interface{}, len(p.baseValues))
	for _, t := range p.baseValues {
		base[t.Key] = t.Value
	}
	if err := k.Load(confmap.Provider(base, delimiter), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, f := range p.files {
		parser, err := parserFor(f)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(f), parser); err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not load config file %s: %v", f, err).WithCause(err)
		}
		p.logger.Debug(ctx, "loaded config file", attribute.String("file", f))
	}

	if !p.disableEnvLoading && p.envPrefix != "" {
		if err := k.Load(env.ProviderWithValue(p.envPrefix, delimiter, p.envValue), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if p.flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(p.flags, delimiter, k, p.flagValue), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	for _, up := range p.userProviders {
		if err := k.Load(up, nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	for _, t := range p.forcedValues {
		if err := k.Set(t.Key, t.Value); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return k, nil
}

func (p *Provider) envValue(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, p.envPrefix))
	if alias, ok := p.envAliases[key]; ok {
		key = alias
	}

	return key, coerce(schemaTypes(p.schema, key), value)
}

func (p *Provider) flagValue(f *pflag.Flag) (string, interface{}) {
	key, ok := p.flagAliases[f.Name]
	if !ok {
		key = strings.ReplaceAll(f.Name, "-", "_")
	}

	return key, posflag.FlagVal(p.flags, f)
}

// coerce converts a raw string to the first JSON type from types it parses as.
func coerce(types []string, value string) interface{} {
	for _, t := range types {
		switch t {
		case "integer":
			if v, err := cast.ToInt64E(value); err == nil {
				return v
			}
		case "number":
			if v, err := cast.ToFloat64E(value); err == nil {
				return v
			}
		case "boolean":
			if v, err := cast.ToBoolE(value); err == nil {
				return v
			}
		case "string":
			return value
		}
	}

	return value
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errorx.InvalidArgumentErrorf("unsupported config file format: %s", path)
	}
}

func (p *Provider) validate(ctx context.Context, k *koanf.Koanf) error {
	s, err := compileSchema(ctx, p.schema)
	if err != nil {
		return err
	}

	raw, err := stdjson.Marshal(k.Raw())
	if err != nil {
		return errors.WithStack(err)
	}

	if err := s.Validate(bytes.NewReader(raw)); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			p.logger.Error(ctx, "configuration is invalid", attribute.String("error", verr.Error()))
		}
		return errorx.InvalidArgumentErrorf("invalid configuration: %v", err).WithCause(err)
	}

	return nil
}

// StringF returns the string at key, or fallback when key is not set.
func (p *Provider) StringF(key, fallback string) string {
	if !p.Exists(key) {
		return fallback
	}

	return cast.ToString(p.Get(key))
}

// IntF returns the integer at key, or fallback when key is not set or not an integer.
func (p *Provider) IntF(key string, fallback int) int {
	if !p.Exists(key) {
		return fallback
	}

	v, err := cast.ToIntE(p.Get(key))
	if err != nil {
		return fallback
	}
	return v
}

// DurationF returns the duration at key, or fallback when key is not set.
// Integers are seconds, strings are parsed with time.ParseDuration.
func (p *Provider) DurationF(key string, fallback time.Duration) time.Duration {
	if !p.Exists(key) {
		return fallback
	}

	v := p.Get(key)
	if s, ok := v.(string); !ok || isDigits(s) {
		secs, err := cast.ToInt64E(v)
		if err != nil {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}

	d, err := cast.ToDurationE(v)
	if err != nil {
		return fallback
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
