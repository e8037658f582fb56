package main

import (
	"fmt"

	"github.com/godilite/gradebot/internal/app"
	"github.com/godilite/gradebot/internal/extractor"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	input    string
	output   string
	subject  string
	columns  string
	dbDriver string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a grade dataset from an HTML report",
		Long: `Parse every table in an HTML grade report, keep the tables that have a
professor column and letter-grade columns, and aggregate them per professor
and course number.

The output is JSON unless the path ends in .db, .sqlite or .sqlite3, in which
case the dataset replaces the contents of that SQLite store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "HTML report to read")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "grades.json", "dataset to write")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "subject code to keep (default from profile, CSCI)")
	cmd.Flags().StringVar(&opts.columns, "columns", "", "YAML column profile")
	cmd.Flags().StringVar(&opts.dbDriver, "db-driver", "sqlite3", "database/sql driver for SQLite outputs")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions) error {
	profile := extractor.DefaultProfile()
	if opts.columns != "" {
		p, err := extractor.LoadProfile(opts.columns)
		if err != nil {
			return err
		}
		profile = p
	}
	if cmd.Flags().Changed("subject") {
		profile.Subject = opts.subject
	}

	ctx := cmd.Context()
	data, report, err := extractor.New(profile, root.logger).ExtractFile(ctx, opts.input)
	if err != nil {
		return err
	}

	if err := app.SaveDataset(ctx, opts.output, opts.dbDriver, data, root.logger); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d professors and %d courses to %s (%d of %d tables used).\n",
		report.Professors, report.Courses, opts.output, report.TablesMatched, report.TablesFound)
	return nil
}
