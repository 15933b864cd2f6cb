package cmd

import (
	"errors"

	"github.com/mj1618/navsync/internal/classifier"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [app]",
	Short: "Run the target classifier",
	Long: `Watch an application's windows and publish its active target to the
state store until interrupted. Without an app, the active bundle of the
global record is watched. The classifier follows "target set" requests
from other processes.

Moving the pointer into the top-right screen corner stops the classifier
(disable with --abort-corner 0).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().Duration("poll", 0, "Window poll interval (default from config)")
	classifyCmd.Flags().Float64("abort-corner", -1, "Abort corner size in px, 0 to disable (default from config)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cfg := classifier.Config{
		PollInterval:   e.cfg.PollInterval,
		SwitchInterval: e.cfg.SwitchInterval,
		StatusInterval: e.cfg.StatusInterval,
		CallTimeout:    e.cfg.CallTimeout,
	}
	if poll, _ := cmd.Flags().GetDuration("poll"); poll > 0 {
		cfg.PollInterval = poll
	}
	corner := e.cfg.AbortCorner
	if c, _ := cmd.Flags().GetFloat64("abort-corner"); c >= 0 {
		corner = c
	}

	var opts []classifier.Option
	if fixture, _ := cmd.Root().PersistentFlags().GetString("fixture"); fixture == "" {
		opts = append(opts, classifier.WithProbe(classifier.ProcessTable{}))
	}
	c := classifier.New(cfg, e.provider, e.store, e.table.Refs, e.logger, opts...)

	var app string
	if len(args) == 1 {
		app = args[0]
	}
	abort := &classifier.CornerAbort{
		Provider:    e.provider,
		Corner:      corner,
		CallTimeout: e.cfg.CallTimeout,
		Logger:      e.logger,
	}

	e.logger.Info("classifier starting", zap.String("source", c.Source()), zap.String("app", app))
	err = classifier.Supervise(cmd.Context(), c, app, abort)
	if errors.Is(err, classifier.ErrAborted) {
		e.logger.Warn("classifier aborted", zap.String("bundle_id", c.BundleID()))
	}
	return err
}
