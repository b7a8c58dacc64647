// Command forumctl administers a forum database: schema, users, forums and thread flags.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/storage/pg"
)

var configFolder string

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn("failed to load .env", "error", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Administer the forum",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configFolder, "config_folder", "config", "path to folder with configs")

	root.AddCommand(newMigrateCmd(), newUserCmd(), newForumCmd(), newThreadCmd())
	return root
}

// openStorage loads the config and connects to the database.
func openStorage() (*config.Config, *pg.Storage, error) {
	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, storage, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, storage, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			if err := storage.Migrate(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("schema is up to date")
			return nil
		},
	}
}
