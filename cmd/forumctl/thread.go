package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/forum/internal/service"
)

func newThreadCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "thread", Short: "Set thread flags"}

	flags := []struct {
		use, short string
		sticky     bool
		value      bool
	}{
		{use: "sticky", short: "Pin a thread to the top of its forum", sticky: true, value: true},
		{use: "unsticky", short: "Unpin a thread", sticky: true, value: false},
		{use: "close", short: "Close a thread to new replies", value: true},
		{use: "open", short: "Reopen a closed thread", value: false},
	}
	for _, f := range flags {
		cmd.AddCommand(&cobra.Command{
			Use:   f.use + " <thread id>",
			Short: f.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return err
				}
				cfg, storage, err := openStorage()
				if err != nil {
					return err
				}
				defer storage.Cleanup()

				forums := service.NewForum(storage, &cfg.Public)
				threads := service.NewThread(storage, forums, &cfg.Public)
				if f.sticky {
					err = threads.SetSticky(cmd.Context(), id, f.value)
				} else {
					err = threads.SetClosed(cmd.Context(), id, f.value)
				}
				if err != nil {
					return err
				}
				cmd.Printf("thread %d: %s\n", id, f.use)
				return nil
			},
		})
	}
	return cmd
}
