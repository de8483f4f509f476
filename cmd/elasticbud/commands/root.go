// Package commands implements the elasticbud command line.
package commands

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/metric"

	"github.com/clinia/elasticbud/configx"
	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
	"github.com/clinia/elasticbud/otelx"
)

type clientFactory func(cfg elasticx.Config, opts ...elasticx.ClientOption) (elasticx.Client, error)

// app holds what every subcommand needs to reach the cluster.
type app struct {
	connection *pflag.FlagSet
	configFile string
	logLevel   string
	telemetry  otelx.Config
	newClient  clientFactory
	stderr     io.Writer
}

// session is what a subcommand runs with.
type session struct {
	c  elasticx.Client
	l  *loggerx.Logger
	mp metric.MeterProvider
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(elasticx.NewClient, os.Stderr)
}

func newRootCommand(newClient clientFactory, stderr io.Writer) *cobra.Command {
	a := &app{newClient: newClient, stderr: stderr}

	root := &cobra.Command{
		Use:          "elasticbud",
		Short:        "Query and bulk load Elasticsearch",
		SilenceUsage: true,
	}

	a.connection = pflag.NewFlagSet("connection", pflag.ContinueOnError)
	a.connection.String("host", "", "cluster host name (env ELASTICBUD_CLIENT_FQDN)")
	a.connection.Int("port", elasticx.DefaultPort, "cluster port (env ELASTICBUD_CLIENT_PORT)")
	a.connection.String("username", "", "basic auth user (env ELASTICBUD_USERNAME)")
	a.connection.String("password", "", "basic auth password (env ELASTICBUD_PASSWORD)")
	a.connection.String("timeout", "", "request timeout, seconds or a duration (env ELASTICBUD_TIMEOUT)")
	a.connection.String("ca-cert", "", "PEM CA bundle used to verify the cluster (env ELASTICBUD_CA_CERT)")
	root.PersistentFlags().AddFlagSet(a.connection)

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "JSON or YAML file holding the connection settings")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.telemetry.Provider, "telemetry", "", "export spans and metrics: stdout (to stderr) or otel")
	root.PersistentFlags().StringVar(&a.telemetry.OTLP.ServerURL, "otlp-endpoint", "", "OTLP/HTTP collector host:port")
	root.PersistentFlags().BoolVar(&a.telemetry.OTLP.Insecure, "otlp-insecure", false, "talk plain HTTP to the collector")
	root.PersistentFlags().Float64Var(&a.telemetry.OTLP.SamplingRatio, "otlp-sampling-ratio", 1, "share of traces exported to the collector")
	a.telemetry.ServiceName = "elasticbud"

	root.AddCommand(
		a.checkCommand(),
		a.indexCommand(),
		a.queryCommand(),
		a.fieldsCommand(),
	)

	root.SetErr(stderr)
	return root
}

// signalContext is cancelled on SIGINT and SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) logger() (*loggerx.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return nil, errorx.InvalidArgumentErrorf("invalid log level %q", a.logLevel).WithCause(err)
	}
	return loggerx.New(a.stderr, level), nil
}

// connect resolves the connection settings and builds a client.
func (a *app) connect(ctx context.Context, l *loggerx.Logger, tel *otelx.Telemetry) (elasticx.Client, error) {
	modifiers := []configx.OptionModifier{
		configx.WithFlags(a.connection),
		configx.WithLogger(l),
	}
	if a.configFile != "" {
		modifiers = append(modifiers, configx.WithConfigFiles(a.configFile))
	}

	p, err := elasticx.NewConfigProvider(ctx, modifiers...)
	if err != nil {
		return nil, err
	}

	cfg, err := elasticx.ConfigFromProvider(p)
	if err != nil {
		return nil, err
	}

	return a.newClient(cfg, elasticx.WithLogger(l), elasticx.WithTracerProvider(tel.TracerProvider))
}

// run sets up the logger, the telemetry, the client and the signal handling around fn.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) (err error) {
	l, err := a.logger()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	tel, err := otelx.New(ctx, l, a.telemetry, a.stderr)
	if err != nil {
		return err
	}
	defer func() {
		if serr := tel.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			l.WithError(serr).Warn(ctx, "could not flush telemetry")
		}
	}()

	c, err := a.connect(ctx, l, tel)
	if err != nil {
		return err
	}

	return fn(ctx, &session{c: c, l: l, mp: tel.MeterProvider})
}

// readJSON reads inline JSON, or a JSON or YAML file.
func readJSON(src string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(trimmed), nil
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("could not read %s: %v", src, err).WithCause(err)
	}
	if strings.HasSuffix(src, ".yaml") || strings.HasSuffix(src, ".yml") {
		raw, err = yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not parse %s: %v", src, err).WithCause(err)
		}
	}
	return raw, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(v))
}
