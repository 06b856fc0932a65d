package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "List the videos a session would triage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = cfg.Recursive
			}

			scanner, err := scan.New(scan.Options{
				Extensions: cfg.Extensions,
				Exclude:    cfg.Exclude,
			}, ctx.logger())
			if err != nil {
				return err
			}

			entries, err := scanner.Scan(cmd.Context(), args[0], recursive)
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []domain.VideoEntry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No video files found in", args[0])
				return nil
			}
			fmt.Fprintln(out, renderScan(entries, args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Include subdirectories (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func renderScan(entries []domain.VideoEntry, root string) string {
	var total int64
	rows := make([][]string, 0, len(entries)+1)
	for i, e := range entries {
		created := "-"
		if e.CreatedAt != nil {
			created = humanize.Time(*e.CreatedAt)
		}
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			rel = e.Path
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rel,
			humanize.IBytes(uint64(e.Size)),
			created,
		})
		total += e.Size
	}
	rows = append(rows, []string{"", fmt.Sprintf("%d videos", len(entries)), humanize.IBytes(uint64(total)), ""})

	return renderTable(
		[]string{"#", "File", "Size", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
}
