package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/semguard/pkg/config"
	"github.com/emenda-labs/semguard/pkg/logging"
	"github.com/emenda-labs/semguard/pkg/serializer"
)

// GlobalOptions holds the persistent flags shared by every subcommand,
// merged with the project file once flags are parsed.
type GlobalOptions struct {
	Solution   string
	Components []string
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Format     serializer.Format

	format string
	// Config is the loaded project file, zero when there is none.
	Config config.Config
}

// SolutionDir returns the directory of the solution path.
func (g GlobalOptions) SolutionDir() string {
	if info, err := os.Stat(g.Solution); err == nil && !info.IsDir() {
		return filepath.Dir(g.Solution)
	}
	return g.Solution
}

// NewRootCmd creates the top-level semguard command. Parsed persistent
// flags are written to globals before any subcommand runs.
func NewRootCmd(version string, globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "semguard",
		Short:        "Semantic versioning guard",
		Long:         "Semguard compares a component's public API against its last snapshot, classifies the change as patch, minor or major, and bumps the declared version to match.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return completeGlobals(cmd, version, globals)
		},
	}

	cmd.Version = version
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.PersistentFlags()
	f.StringVarP(&globals.Solution, "solution", "s", ".", "Solution to analyse: a directory, go.work or go.mod")
	f.StringSliceVarP(&globals.Components, "component", "c", nil, "Component (module path) to process; repeatable")
	f.StringVar(&globals.ConfigPath, "config", "", "Project file (default <solution>/"+config.FileName+")")
	f.StringVar(&globals.LogLevel, "log-level", "", "Log level: debug, info, warn or error (default $"+logging.EnvLevel+" or info)")
	f.StringVar(&globals.LogFormat, "log-format", "text", "Log format: text or json")
	f.StringVar(&globals.format, "format", "", "Output format: "+strings.Join(serializer.SupportedFormats(), ", ")+" (default table)")

	return cmd
}

func completeGlobals(cmd *cobra.Command, version string, g *GlobalOptions) error {
	if g.LogFormat != "text" && g.LogFormat != "json" {
		return fmt.Errorf("--log-format must be text or json, got %q", g.LogFormat)
	}
	logging.SetDefault("semguard", version, g.LogLevel, g.LogFormat == "json")

	if _, err := os.Stat(g.Solution); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("solution path does not exist: %s", g.Solution)
		}
		return fmt.Errorf("cannot access solution path: %w", err)
	}

	cfg, err := config.Load(g.ConfigPath, g.SolutionDir())
	if err != nil {
		return err
	}
	g.Config = cfg

	if !cmd.Flags().Changed("component") && len(cfg.Components) > 0 {
		g.Components = cfg.Components
	}
	if len(g.Components) == 0 {
		return fmt.Errorf("--component is required (or list components in %s)", config.FileName)
	}

	format := g.format
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		format = cfg.Format
	}
	g.Format, err = serializer.ParseFormat(format)
	return err
}
