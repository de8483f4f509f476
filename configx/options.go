// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"github.com/knadh/koanf"
	"github.com/spf13/pflag"

	"github.com/clinia/elasticbud/loggerx"
)

type (
	OptionModifier func(p *Provider)
)

func WithConfigFiles(files ...string) OptionModifier {
	return func(p *Provider) {
		p.files = append(p.files, files...)
	}
}

func WithFlags(flags *pflag.FlagSet) OptionModifier {
	return func(p *Provider) {
		p.flags = flags
	}
}

func WithLogger(l *loggerx.Logger) OptionModifier {
	return func(p *Provider) {
		p.logger = l
	}
}

func SkipValidation() OptionModifier {
	return func(p *Provider) {
		p.skipValidation = true
	}
}

func DisableEnvLoading() OptionModifier {
	return func(p *Provider) {
		p.disableEnvLoading = true
	}
}

// WithEnvPrefix loads the environment variables starting with prefix.
// The prefix is stripped and the remainder lower-cased to form the key.
func WithEnvPrefix(prefix string) OptionModifier {
	return func(p *Provider) {
		p.envPrefix = prefix
	}
}

// WithEnvAliases maps lower-cased environment variable names (prefix stripped) to config keys.
func WithEnvAliases(aliases map[string]string) OptionModifier {
	return func(p *Provider) {
		for env, key := range aliases {
			p.envAliases[env] = key
		}
	}
}

// WithFlagAliases maps flag names to config keys. Flags without an alias are
// loaded under their name with dashes replaced by underscores.
func WithFlagAliases(aliases map[string]string) OptionModifier {
	return func(p *Provider) {
		for flag, key := range aliases {
			p.flagAliases[flag] = key
		}
	}
}

// WithValue forces key to value, overriding every other source.
func WithValue(key string, value interface{}) OptionModifier {
	return func(p *Provider) {
		p.forcedValues = append(p.forcedValues, tuple{Key: key, Value: value})
	}
}

func WithValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		for key, value := range values {
			p.forcedValues = append(p.forcedValues, tuple{Key: key, Value: value})
		}
	}
}

// WithBaseValues sets defaults, overridden by every other source.
func WithBaseValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		for key, value := range values {
			p.baseValues = append(p.baseValues, tuple{Key: key, Value: value})
		}
	}
}

func WithUserProviders(providers ...koanf.Provider) OptionModifier {
	return func(p *Provider) {
		p.userProviders = providers
	}
}
