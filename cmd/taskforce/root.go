package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/nidhogg/taskforce/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags.
var version = "dev"

// cli carries state shared by every subcommand once the root has run.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "taskforce",
		Short: "Sustainability task force: news, policy, innovation and air-quality agents",
		Long: "taskforce runs a team of analysts for a city and composes their\n" +
			"findings into a draft sustainability proposal.",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newRunCmd(c))
	root.AddCommand(newRolesCmd(c))
	root.AddCommand(newDemoCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	path, explicit := c.configPath, true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path, explicit = config.DefaultPath, false
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	default:
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	logger.Debug("config loaded", zap.String("path", path))
	return nil
}

// newLogger builds a production logger at level, or a development logger
// for debug.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
