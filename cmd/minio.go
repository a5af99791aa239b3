package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"songvault/config"
	"songvault/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the storage bucket",
	Long:  `Connect to MinIO and list the audio objects in the configured bucket. Useful for spotting objects orphaned by a failed row write.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		keys, err := store.ListKeys(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("Failed to list objects: %v", err)
		}

		for _, key := range keys {
			fmt.Println(key)
		}
		fmt.Printf("%d object(s) in bucket %s\n", len(keys), cfg.MinioBucket)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "only list objects under this prefix")
}
