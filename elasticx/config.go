package elasticx

import (
	"context"
	_ "embed"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/clinia/elasticbud/configx"
	"github.com/clinia/elasticbud/errorx"
)

const (
	DefaultPort    = 443
	DefaultTimeout = 300 * time.Second

	// EnvPrefix is the prefix of the environment variables read by NewConfigProvider.
	EnvPrefix = "ELASTICBUD_"
)

//go:embed config.schema.json
var ConfigSchema []byte

var envAliases = map[string]string{
	"client_fqdn": "host",
	"client_port": "port",
}

// Config holds everything needed to build a Client.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration

	// CACert is a PEM encoded CA bundle. When empty the system roots are used.
	CACert []byte
}

// WithDefaults returns a copy of c with unset values defaulted.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errorx.InvalidArgumentErrorf("elasticsearch host is required")
	case c.Port <= 0 || c.Port > 65535:
		return errorx.InvalidArgumentErrorf("elasticsearch port %d is out of range", c.Port)
	case c.Username == "" || c.Password == "":
		return errorx.InvalidArgumentErrorf("elasticsearch username and password are required")
	case c.Timeout < 0:
		return errorx.InvalidArgumentErrorf("elasticsearch timeout must be positive")
	}
	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the https URL of the cluster.
func (c Config) URL() string {
	return "https://" + c.Address()
}

// NewConfigProvider loads the client configuration from the ELASTICBUD_ environment
// (CLIENT_FQDN, CLIENT_PORT, USERNAME, PASSWORD, TIMEOUT, CA_CERT) and the given sources.
func NewConfigProvider(ctx context.Context, modifiers ...configx.OptionModifier) (*configx.Provider, error) {
	base := []configx.OptionModifier{
		configx.WithBaseValues(map[string]interface{}{
			"port":    DefaultPort,
			"timeout": int(DefaultTimeout / time.Second),
		}),
		configx.WithEnvPrefix(EnvPrefix),
		configx.WithEnvAliases(envAliases),
	}

	return configx.New(ctx, ConfigSchema, append(base, modifiers...)...)
}

// ConfigFromProvider resolves a Config from p. The CA bundle is read from the ca_cert path.
func ConfigFromProvider(p *configx.Provider) (Config, error) {
	c := Config{
		Host:     p.StringF("host", ""),
		Port:     p.IntF("port", DefaultPort),
		Username: p.StringF("username", ""),
		Password: p.StringF("password", ""),
		Timeout:  p.DurationF("timeout", DefaultTimeout),
	}

	if path := p.StringF("ca_cert", ""); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errorx.InvalidArgumentErrorf("could not read CA certificate %s: %v", path, err).WithCause(err)
		}
		c.CACert = pem
	}

	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

const (
	// DefaultRetryAttempts bounds the attempts of every retried read or write, the first one included.
	DefaultRetryAttempts = 5
	// DefaultRetryInterval is the fixed delay between two attempts.
	DefaultRetryInterval = 500 * time.Millisecond
)
