package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipsort/internal/app"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		addr      string
		noBrowser bool
		recursive bool
		noWatch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the triage UI on the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.ListenAddr = addr
			}
			if noBrowser {
				cfg.OpenBrowser = false
			}
			if flags.Changed("recursive") {
				cfg.Recursive = recursive
			}
			if noWatch {
				cfg.Watch = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := ctx.logger()
			defer func() { _ = log.Sync() }()

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(runCtx, cfg, log)
			if err != nil {
				return err
			}
			return a.Run(runCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:3000)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the UI in a browser")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan subdirectories by default")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not follow the source directory for changes")

	return cmd
}
