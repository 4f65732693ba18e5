package main

import (
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, st := loadConfig()
		defer st.Close()
		if err := store.Migrate(st.DB()); err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
		jww.INFO.Printf("schema up to date")
	},
}
