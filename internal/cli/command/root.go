package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/cli/connection"
	"github.com/yndnr/rostervault/internal/cli/output"
	"github.com/yndnr/rostervault/internal/infra/buildinfo"
	"github.com/yndnr/rostervault/internal/server/bootstrap"
	"github.com/yndnr/rostervault/internal/server/config"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
)

// DefaultTimeout bounds a whole command.
const DefaultTimeout = 5 * time.Minute

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "rostervault-cli",
		Usage:   "Inspect and manage rostervault backups",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BackupCommand(),
			ServerCommand(),
			ConfigCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Server configuration file used to reach the object store",
			EnvVars: []string{"ROSTERVAULT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "ops-addr",
			Aliases: []string{"a"},
			Usage:   "Ops listener address of a running server",
			EnvVars: []string{"ROSTERVAULT_OPS_ADDR"},
			Value:   config.DefaultOpsAddr,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Give up after this long",
			Value: DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	OpsAddr string
	Output  string
	Wide    bool
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		OpsAddr: c.String("ops-addr"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Timeout: c.Duration("timeout"),
	}
}

// commandContext returns a context bounded by --timeout.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	timeout := ParseGlobalFlags(c).Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(c.Context, timeout)
}

// OpsClient returns a client for the ops listener named by --ops-addr.
func OpsClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.OpsAddr, flags.Timeout)
}

// render writes data in the format chosen by --output.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(stdout(c), data)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// storeSession is the object store opened from the server configuration.
type storeSession struct {
	cfg     *config.ServerConfig
	store   *bootstrap.Store
	codec   *snapshot.Codec
	catalog *backup.Catalog
	log     logger.Logger
}

// openStore loads --config and opens the store and codec it describes.
func openStore(ctx context.Context, c *cli.Context) (*storeSession, error) {
	cfg, err := config.Load(ParseGlobalFlags(c).Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Store diagnostics go to stderr.
	log, err := logger.New(logger.Config{Level: "warn", Format: "text", Output: stderr(c)})
	if err != nil {
		return nil, err
	}

	store, err := bootstrap.OpenStore(ctx, cfg.Store, nil, logger.ToSlog(log))
	if err != nil {
		return nil, err
	}
	codec, err := bootstrap.NewCodec(cfg.Backup)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init codec: %w", err)
	}

	return &storeSession{
		cfg:     cfg,
		store:   store,
		codec:   codec,
		catalog: backup.NewCatalog(store, cfg.Backup.Prefix, codec),
		log:     log,
	}, nil
}

func (s *storeSession) Close() error {
	s.codec.Close()
	return s.store.Close()
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
