package main

import (
	"fmt"
	"io"
	"os"

	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/flavor"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	logLevel  string
	logFormat string
	rulesPath string

	log      zerolog.Logger
	registry *flavor.Registry
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "segpack",
		Short: "Segmented container tool",
		Long: `segpack unpacks segmented game containers (battle packs, ebp and ard
stages, picture books) into editable directories and packs them back
byte for byte.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "console", "Log format (console or json)")
	flags.StringVar(&a.rulesPath, "rules", "", "YAML rule table replacing the built-in path rules")

	root.AddCommand(
		newUnpackCmd(a),
		newPackCmd(a),
		newBatchCmd(a),
		newInspectCmd(a),
		newBundleCmd(a),
		newUnbundleCmd(a),
		newIconsCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
	if err != nil {
		return err
	}
	a.log = logger
	a.out = cmd.OutOrStdout()

	var rules []flavor.Rule
	if a.rulesPath != "" {
		f, err := os.Open(a.rulesPath)
		if err != nil {
			return err
		}
		defer f.Close()

		if rules, err = flavor.LoadRules(f); err != nil {
			return fmt.Errorf("%s: %w", a.rulesPath, err)
		}
		a.log.Debug().Str("rules", a.rulesPath).Int("count", len(rules)).Msg("loaded rule table")
	}

	a.registry, err = flavor.NewRegistry(rules)

	return err
}

// layoutFor returns the layout called name, or the one the path rules pick
// for path when name is empty.
func (a *app) layoutFor(path, name string) (*container.Layout, error) {
	if name != "" {
		return a.registry.Layout(name)
	}

	l, rule, err := a.registry.Resolve(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("file", path).Str("pattern", rule.Pattern).Str("layout", l.Name()).Msg("matched rule")

	return l, nil
}

// checkCount warns when c, read from or written to path, does not have the
// section count the path's rule expects.
func (a *app) checkCount(path string, c *container.Container) {
	rule, ok := a.registry.Match(path)
	if !ok || rule.Layout != c.Layout().Name() || rule.ExpectsCount(c.Len()) {
		return
	}

	a.log.Warn().
		Str("file", path).
		Str("pattern", rule.Pattern).
		Int("sections", c.Len()).
		Int("expected", rule.Sections).
		Msg("unexpected section count")
}
