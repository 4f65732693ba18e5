package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/hanish78780/skillbridge-chat/internal/config"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

const (
	logLevelFlag = "logLevel"
	logFlag      = "log"
	envFileFlag  = "env-file"
)

var rootCmd = &cobra.Command{
	Use:   "skillbridge-chat",
	Short: "Realtime chat, presence and notification service for SkillBridge",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Bind(viper.GetViper(), viper.GetString(envFileFlag))
		initLog(viper.GetUint(logLevelFlag), viper.GetString(logFlag))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.UintP(logLevelFlag, "v", 0, "Verbosity level: 0 info, 1 debug, 2+ trace")
	flags.StringP(logFlag, "l", "-", "Path to the log output path (- is stdout)")
	flags.String(envFileFlag, ".env", "Optional env file loaded before reading the environment")
	flags.String(config.DatabaseDriverKey, "sqlite", "Database driver: sqlite or postgres")
	flags.String(config.DatabaseDSNKey, "skillbridge.db", "Database DSN")

	for _, name := range []string{logLevelFlag, logFlag, envFileFlag, config.DatabaseDriverKey, config.DatabaseDSNKey} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			jww.FATAL.Panicf("bind flag %s: %+v", name, err)
		}
	}

	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd)
}

func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		jww.SetStdoutOutput(io.Discard)
		out, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			jww.FATAL.Panicf("open log file %s: %v", logPath, err)
		}
		jww.SetLogOutput(out)
	}

	switch {
	case threshold > 1:
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: TRACE")
	case threshold == 1:
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: DEBUG")
	default:
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
		jww.INFO.Printf("log level set to: INFO")
	}
}

// loadConfig reads the configuration and opens the store.
func loadConfig() (*config.Config, *store.Store) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		jww.FATAL.Panicf("load config: %+v", err)
	}
	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		jww.FATAL.Panicf("%+v", err)
	}
	return cfg, store.New(db, store.WithNotificationTTL(cfg.NotificationTTL))
}
