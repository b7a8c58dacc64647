package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/forum/internal/jwt"
	"github.com/itchan-dev/forum/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}
	cmd.AddCommand(newUserCreateCmd(), newUserGroupsCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var data service.UserData
	var groups []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user; the password may come from FORUM_USER_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, storage, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			if data.Password == "" {
				data.Password = os.Getenv("FORUM_USER_PASSWORD")
			}
			data.Groups = groups

			auth := service.NewAuth(storage, jwt.New(cfg.JwtKey(), cfg.JwtTTL()))
			id, err := auth.CreateUser(cmd.Context(), data)
			if err != nil {
				return err
			}
			cmd.Printf("created user %q with id %d\n", data.Username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Username, "username", "", "login name")
	cmd.Flags().StringVar(&data.Email, "email", "", "address for reply notifications")
	cmd.Flags().StringVar(&data.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().BoolVar(&data.Admin, "admin", false, "grant administrator rights")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "comma separated group names")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Add or remove group membership; takes effect on the user's next login",
	}
	for _, action := range []string{"add", "remove"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action + " <username> <group>",
			Short: fmt.Sprintf("%s a group membership", action),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, storage, err := openStorage()
				if err != nil {
					return err
				}
				defer storage.Cleanup()

				auth := service.NewAuth(storage, jwt.New(cfg.JwtKey(), cfg.JwtTTL()))
				if action == "add" {
					err = auth.AddGroup(cmd.Context(), args[0], args[1])
				} else {
					err = auth.RemoveGroup(cmd.Context(), args[0], args[1])
				}
				if err != nil {
					return err
				}
				cmd.Printf("%s: %s %s\n", args[0], action, args[1])
				return nil
			},
		})
	}
	return cmd
}
