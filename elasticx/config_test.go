package elasticx_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinia/elasticbud/configx"
	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
)

func setCredentials(t *testing.T) {
	t.Setenv("ELASTICBUD_CLIENT_FQDN", "es.example.com")
	t.Setenv("ELASTICBUD_USERNAME", "elastic")
	t.Setenv("ELASTICBUD_PASSWORD", "changeme")
}

func TestConfigFromProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("should read the environment and apply defaults", func(t *testing.T) {
		setCredentials(t)

		p, err := elasticx.NewConfigProvider(ctx)
		require.NoError(t, err)
		cfg, err := elasticx.ConfigFromProvider(p)
		require.NoError(t, err)

		assert.Equal(t, elasticx.Config{
			Host:     "es.example.com",
			Port:     443,
			Username: "elastic",
			Password: "changeme",
			Timeout:  300 * time.Second,
		}, cfg)
		assert.Equal(t, "es.example.com:443", cfg.Address())
		assert.Equal(t, "https://es.example.com:443", cfg.URL())
	})

	t.Run("should read the port and timeout", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("ELASTICBUD_CLIENT_PORT", "9243")
		t.Setenv("ELASTICBUD_TIMEOUT", "45")

		p, err := elasticx.NewConfigProvider(ctx)
		require.NoError(t, err)
		cfg, err := elasticx.ConfigFromProvider(p)
		require.NoError(t, err)

		assert.Equal(t, 9243, cfg.Port)
		assert.Equal(t, 45*time.Second, cfg.Timeout)
	})

	t.Run("should accept a duration string", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("ELASTICBUD_TIMEOUT", "2m")

		p, err := elasticx.NewConfigProvider(ctx)
		require.NoError(t, err)
		cfg, err := elasticx.ConfigFromProvider(p)
		require.NoError(t, err)

		assert.Equal(t, 2*time.Minute, cfg.Timeout)
	})

	t.Run("should let flags override the environment", func(t *testing.T) {
		setCredentials(t)
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("host", "", "")
		flags.Int("port", 0, "")
		require.NoError(t, flags.Parse([]string{"--host", "localhost", "--port", "9200"}))

		p, err := elasticx.NewConfigProvider(ctx, configx.WithFlags(flags))
		require.NoError(t, err)
		cfg, err := elasticx.ConfigFromProvider(p)
		require.NoError(t, err)

		assert.Equal(t, "localhost:9200", cfg.Address())
	})

	t.Run("should load the CA bundle", func(t *testing.T) {
		setCredentials(t)
		ca := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(ca, []byte("-----BEGIN CERTIFICATE-----\n"), 0o600))
		t.Setenv("ELASTICBUD_CA_CERT", ca)

		p, err := elasticx.NewConfigProvider(ctx)
		require.NoError(t, err)
		cfg, err := elasticx.ConfigFromProvider(p)
		require.NoError(t, err)

		assert.Equal(t, []byte("-----BEGIN CERTIFICATE-----\n"), cfg.CACert)
	})

	t.Run("should fail on a missing CA bundle", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("ELASTICBUD_CA_CERT", filepath.Join(t.TempDir(), "missing.pem"))

		p, err := elasticx.NewConfigProvider(ctx)
		require.NoError(t, err)
		_, err = elasticx.ConfigFromProvider(p)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should require credentials", func(t *testing.T) {
		t.Setenv("ELASTICBUD_CLIENT_FQDN", "es.example.com")

		_, err := elasticx.NewConfigProvider(ctx)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should refuse a port out of range", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("ELASTICBUD_CLIENT_PORT", "70000")

		_, err := elasticx.NewConfigProvider(ctx)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})
}

func TestConfigValidate(t *testing.T) {
	valid := elasticx.Config{Host: "localhost", Username: "elastic", Password: "changeme"}.WithDefaults()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*elasticx.Config)
	}{
		{name: "no host", modify: func(c *elasticx.Config) { c.Host = "" }},
		{name: "negative port", modify: func(c *elasticx.Config) { c.Port = -1 }},
		{name: "port too large", modify: func(c *elasticx.Config) { c.Port = 65536 }},
		{name: "no username", modify: func(c *elasticx.Config) { c.Username = "" }},
		{name: "no password", modify: func(c *elasticx.Config) { c.Password = "" }},
		{name: "negative timeout", modify: func(c *elasticx.Config) { c.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			assert.True(t, errorx.IsInvalidArgumentError(c.Validate()))
		})
	}
}
