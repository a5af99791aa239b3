package cmd

import (
	"log"

	"songvault/config"
	"songvault/db"
	"songvault/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the song table schema via GORM AutoMigrate.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.Song{}); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
