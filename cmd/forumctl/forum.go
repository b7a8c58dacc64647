package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/forum/internal/access"
	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/service"
)

func newForumCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "forum", Short: "Manage forums"}
	cmd.AddCommand(newForumCreateCmd(), newForumListCmd())
	return cmd
}

func splitSlugs(path string) []domain.ForumSlug {
	var slugs []domain.ForumSlug
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			slugs = append(slugs, s)
		}
	}
	return slugs
}

func newForumCreateCmd() *cobra.Command {
	var data domain.ForumCreationData
	var parent string
	var groups []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a forum, optionally nested under --parent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, storage, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			forums := service.NewForum(storage, &cfg.Public)
			if parent != "" {
				p, err := forums.Find(cmd.Context(), splitSlugs(parent))
				if err != nil {
					return fmt.Errorf("parent %q: %w", parent, err)
				}
				data.ParentId = &p.Id
			}
			data.AccessGroups = groups

			id, err := forums.Create(cmd.Context(), data)
			if err != nil {
				return err
			}
			cmd.Printf("created forum %q with id %d\n", data.Slug, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Slug, "slug", "", "URL segment")
	cmd.Flags().StringVar(&data.Title, "title", "", "display title")
	cmd.Flags().StringVar(&data.Description, "description", "", "one line shown under the title")
	cmd.Flags().StringVar(&parent, "parent", "", "slug path of the parent forum, e.g. general/offtopic")
	cmd.Flags().IntVar(&data.Ordering, "ordering", 0, "position among siblings")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "groups allowed to see the forum; empty means public")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newForumListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the whole forum tree with access groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, storage, err := openStorage()
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			forums, err := storage.GetForums(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range access.Flatten(access.Nest(forums)) {
				groups := "public"
				if len(f.AccessGroups) > 0 {
					groups = strings.Join(f.AccessGroups, ",")
				}
				cmd.Printf("%4d  %-40s %-30s [%s]\n", f.Id, f.URL(), f.Title, groups)
			}
			return nil
		},
	}
}
