package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/jobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background jobs such as the expired-notification purge",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, st := loadConfig()
		defer st.Close()

		w, err := jobs.NewWorker(cfg.RedisURL, cfg.WorkerConcurrency, cfg.PurgeSpec, st)
		if err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Run(ctx); err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
	},
}
