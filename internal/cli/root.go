// Package cli implements the xcompile command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/xcompile/internal/logx"
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/config"
)

// errReported is returned once a failure has already been printed.
var errReported = errors.New("reported")

type app struct {
	reg     *bindlang.Registry
	cfgPath string
	color   string
	verbose bool
}

// Execute runs the command tree against reg and returns the process exit
// code.
func Execute(reg *bindlang.Registry, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(reg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return 1
}

func newRootCmd(reg *bindlang.Registry) *cobra.Command {
	a := &app{reg: reg}
	cmd := &cobra.Command{
		Use:           "xcompile",
		Short:         "Compile binding declarations into glue code for other languages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validColor(a.color)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config yaml path (jobs, output, watch, server)")
	pf.StringVar(&a.color, "color", "", "colorize diagnostics: auto|always|never")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log compile steps to stderr")

	cmd.AddCommand(
		newCompileCmd(a),
		newCheckCmd(a),
		newDescribeCmd(),
		newLanguagesCmd(a),
		newTargetsCmd(),
		newWatchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// defaultConfigFile is picked up from the working directory when --config is
// not given and a command needs jobs.
const defaultConfigFile = "xcompile.yaml"

// loadConfig reads --config, or returns defaults when none was given.
func (a *app) loadConfig() (*config.Config, error) {
	p := strings.TrimSpace(a.cfgPath)
	if p == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(p)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", p, err)
	}
	return cfg, nil
}

// requireConfig is loadConfig for commands that run configured jobs; it
// falls back to ./xcompile.yaml.
func (a *app) requireConfig() (*config.Config, error) {
	if strings.TrimSpace(a.cfgPath) == "" {
		if !fileExists(defaultConfigFile) {
			return nil, fmt.Errorf("--config is required (no %s in the working directory)", defaultConfigFile)
		}
		a.cfgPath = defaultConfigFile
	}
	return a.loadConfig()
}

func (a *app) colorMode(cfg *config.Config) string {
	if c := strings.TrimSpace(a.color); c != "" {
		return c
	}
	if cfg != nil && cfg.Logging.Color != "" {
		return cfg.Logging.Color
	}
	return logx.ColorAuto
}

func (a *app) logger(cmd *cobra.Command, cfg *config.Config) *log.Logger {
	if a.verbose || (cfg != nil && strings.EqualFold(cfg.Logging.Level, "debug")) {
		return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func validColor(mode string) error {
	switch strings.TrimSpace(mode) {
	case "", logx.ColorAuto, logx.ColorAlways, logx.ColorNever:
		return nil
	default:
		return fmt.Errorf("--color must be one of auto|always|never, got %q", mode)
	}
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
