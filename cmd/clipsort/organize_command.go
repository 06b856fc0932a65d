package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipsort/internal/app"
	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		target   string
		category string
		name     string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "organize <video>",
		Short: "Move one video into <target>/<category>/<name>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			req := domain.OrganizeRequest{
				SourcePath:  args[0],
				TargetRoot:  target,
				Category:    category,
				NewBaseName: name,
			}

			if remember {
				err := ctx.withBackend(cmd.Context(), func(b *app.Backend) error {
					_, err := b.Store.Add(cmd.Context(), category)
					return err
				})
				if err != nil {
					return err
				}
			}

			dst, err := organize.New(ctx.logger()).Organize(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s → %s\n", args[0], dst)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target directory (required)")
	cmd.Flags().StringVarP(&category, "category", "k", "", "Category folder (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "New file name without extension (default: keep)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Add the category to the category store")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
