package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/happyhackingspace/segmorph/internal/banner"
	"github.com/happyhackingspace/segmorph/internal/config"
	"github.com/spf13/cobra"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configPath  string
	initialized bool
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "segmorph",
		Short:   "Morpheme segmentation with character taggers",
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	flags.StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	flags.String("model", "", "Path to model artifact (default: auto-detect or download)")
	flags.Int("batch-size", config.Default().BatchSize, "Number of words per model call")
	flags.String("unknown", "", "Unknown character policy: fail or map (default: the model's)")
	flags.String("locale", config.Default().Locale, "Model locale to download")
	flags.String("model-version", config.Default().Version, "Model version to download")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newSegmentCommand())
	c.rootCmd.AddCommand(c.newPredictCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newTagsCommand())
	c.rootCmd.AddCommand(c.newDownloadCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp initializes logging and prints the banner.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
}

// settings merges the defaults, the config file and the flags set on the
// command line, in increasing order of precedence.
func (c *CLI) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	// Get* only fails when a flag's type differs from its definition.
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model, _ = flags.GetString("model")
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("unknown") {
		cfg.Unknown, _ = flags.GetString("unknown")
	}
	if flags.Changed("locale") {
		cfg.Locale, _ = flags.GetString("locale")
	}
	if flags.Changed("model-version") {
		cfg.Version, _ = flags.GetString("model-version")
	}
	if flags.Changed("scheme") {
		cfg.Scheme, _ = flags.GetString("scheme")
	}
	if flags.Changed("max-len") {
		cfg.MaxLen, _ = flags.GetInt("max-len")
	}
	if flags.Changed("shuffle") {
		cfg.Shuffle, _ = flags.GetBool("shuffle")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
