package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipsort/internal/app"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Inspect or extend the category list",
	}
	cmd.AddCommand(newCategoriesListCommand(ctx))
	cmd.AddCommand(newCategoriesAddCommand(ctx))
	return cmd
}

func newCategoriesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd.Context(), func(b *app.Backend) error {
				list, err := b.Store.List(cmd.Context())
				if err != nil {
					return err
				}
				return printCategories(cmd, b.Name, list, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the list as JSON")
	return cmd
}

func newCategoriesAddCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Append a category (no-op when it already exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd.Context(), func(b *app.Backend) error {
				list, err := b.Store.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printCategories(cmd, b.Name, list, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the resulting list as JSON")
	return cmd
}

func printCategories(cmd *cobra.Command, backend string, list []string, jsonOut bool) error {
	if jsonOut {
		if list == nil {
			list = []string{}
		}
		return writeJSON(cmd, list)
	}
	rows := make([][]string, 0, len(list))
	for i, name := range list {
		rows = append(rows, []string{strconv.Itoa(i + 1), name})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Category"}, rows, []columnAlignment{alignRight, alignLeft}))
	fmt.Fprintf(cmd.OutOrStdout(), "%d categories (%s backend)\n", len(list), backend)
	return nil
}
