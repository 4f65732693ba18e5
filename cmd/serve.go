package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
	"github.com/hanish78780/skillbridge-chat/internal/cache"
	"github.com/hanish78780/skillbridge-chat/internal/chat"
	"github.com/hanish78780/skillbridge-chat/internal/config"
	"github.com/hanish78780/skillbridge-chat/internal/handlers"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the realtime gateway",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, st := loadConfig()
		defer st.Close()
		if err := cfg.RequireSecret(); err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
		if err := store.Migrate(st.DB()); err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
		if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
			jww.FATAL.Panicf("create uploads dir: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var dir store.Directory = st
		if cfg.RedisURL != "" {
			rc, err := cache.NewRedis(ctx, cfg.RedisURL)
			if err != nil {
				jww.WARN.Printf("user cache disabled: %+v", err)
			} else {
				defer rc.Close()
				dir = store.NewCachedDirectory(st, rc, cfg.UserCacheTTL)
			}
		}

		gateway := chat.NewGateway(st, dir, chat.Config{
			SendBuffer:      cfg.SendBuffer,
			EventsPerSecond: cfg.EventsPerSecond,
		})
		go gateway.Run(ctx)

		app := handlers.NewApp(handlers.Deps{
			Store:     st,
			Directory: dir,
			Gateway:   gateway,
			Verifier:  auth.NewVerifier(cfg.JWTSecret),
			Uploads: handlers.Uploads{
				Dir:      cfg.UploadsDir,
				Prefix:   cfg.UploadsPrefix,
				MaxFiles: cfg.UploadsMaxFiles,
			},
			NotificationsLimit: cfg.NotificationsLimit,
			AllowedOrigins:     cfg.AllowedOrigins,
			BaseContext:        ctx,
		})

		go func() {
			<-ctx.Done()
			jww.INFO.Printf("shutting down")
			if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
				jww.ERROR.Printf("shutdown: %v", err)
			}
		}()

		jww.INFO.Printf("listening on %s", cfg.ServerAddr)
		if err := app.Listen(cfg.ServerAddr); err != nil {
			jww.FATAL.Panicf("listen: %v", err)
		}
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String(config.ServerAddrKey, "127.0.0.1:3000", "Address to listen on")
	flags.String(config.JWTSecretKey, "", "Secret used to verify bearer tokens")
	flags.String(config.RedisURLKey, "", "Redis URL for the user summary cache")
	flags.String(config.UploadsDirKey, "./uploads", "Directory attachments are stored in")
	for _, name := range []string{config.ServerAddrKey, config.JWTSecretKey, config.RedisURLKey, config.UploadsDirKey} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			jww.FATAL.Panicf("bind flag %s: %+v", name, err)
		}
	}
}
