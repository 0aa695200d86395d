package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oetools/oequery/pkg/config"
	"github.com/oetools/oequery/pkg/logging"
	"github.com/oetools/oequery/pkg/selectors"
	"github.com/oetools/oequery/pkg/session"
)

// app bundles the wired collaborators behind every subcommand.
type app struct {
	cfg *config.Config
	reg *selectors.Registry
	mgr *session.Manager
	log *zap.Logger
}

var flagDebug bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oeq",
		Short: "Ask OpenEvidence questions from the terminal",
		Long: `oeq drives a real browser session against OpenEvidence: sign in once
with 'oeq auth setup', then query with 'oeq ask'. The session persists
across runs under ~/.oequery (override with OEQUERY_DATA_DIR).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable verbose diagnostic logging")

	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newAskCmd())
	return cmd
}

// newApp resolves config and wires the stack. Called per command run so the
// --debug flag has been parsed by the time the logger is built.
func newApp() (*app, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	log := logging.New(flagDebug, cfg.DataDir)

	reg := selectors.Default()
	if err := reg.MergeFile(cfg.SelectorsPath()); err != nil {
		// A broken override file should not brick the tool; the built-in
		// chains still work.
		log.Warn("ignoring selector override file", zap.Error(err))
	}

	store := session.NewStore(cfg, log)
	return &app{
		cfg: cfg,
		reg: reg,
		mgr: session.NewManager(cfg, store, reg, log),
		log: log,
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// printTo writes a formatted line to the command's stdout stream.
func printTo(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
