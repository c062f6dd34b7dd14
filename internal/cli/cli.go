// Package cli implements the lockrisk command-line interface.
//
// # Commands
//
//   - analyze: summarize a package-lock.json and rank its riskiest packages
//   - simulate: list every package that would be exposed if one were compromised
//   - render: draw the dependency graph as SVG, DOT or a JSON export
//   - explore: browse the risk ranking interactively
//   - serve: run the HTTP API
//   - cache: manage the local render cache
//
// All commands accept --verbose (-v) for debug logging and --config to
// point at a TOML settings file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lockrisk/internal/config"
	"github.com/matzehuels/lockrisk/pkg/buildinfo"
	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "lockrisk"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and built-in settings.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "lockrisk scores supply-chain risk in npm lockfiles",
		Long: `lockrisk reads a package-lock.json, builds the resolved dependency graph
and scores every package by how deep it sits and how many packages depend
on it. It can simulate the blast radius of a compromised package and draw
the graph with the risky parts highlighted.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/lockrisk/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			c.Logger.Debug("no config path", "err", err)
			return nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", path)
	return nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/lockrisk/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// flagOr returns the flag value when the user set it, else the configured one.
func flagOr[T any](cmd *cobra.Command, name string, flag, configured T) T {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return configured
}
