package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/godilite/gradebot/internal/app"
	"github.com/godilite/gradebot/internal/chart"
	"github.com/godilite/gradebot/internal/service"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	dataset  string
	chart    string
	subject  string
	prefix   string
	dbDriver string
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <professor> [course number]",
		Short: "Look up a professor's grade distribution",
		Long: `Resolve the arguments the same way the chat command does and print the
reply. For a course, the grade chart is written to --chart.`,
		Example: `  gradectl query waxman, j
  gradectl query waxman, j 211 --chart out.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.dataset, "dataset", "d", "grades.json", "dataset to query")
	cmd.Flags().StringVar(&opts.chart, "chart", "grade_chart.png", "where to write the chart image")
	cmd.Flags().StringVar(&opts.subject, "subject", service.DefaultSubject, "subject code shown in replies")
	cmd.Flags().StringVar(&opts.prefix, "prefix", service.DefaultPrefix, "command prefix shown in usage hints")
	cmd.Flags().StringVar(&opts.dbDriver, "db-driver", "sqlite3", "database/sql driver for SQLite datasets")

	return cmd
}

func runQuery(cmd *cobra.Command, root *rootOptions, opts *queryOptions, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	data, err := app.LoadDataset(ctx, opts.dataset, opts.dbDriver, root.logger)
	if err != nil {
		return err
	}

	grades := service.NewGradeService(data, chart.NewRenderer(), nil, service.Options{
		Subject: opts.subject,
		Prefix:  opts.prefix,
	}, root.logger)

	res, err := grades.Lookup(ctx, strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(out, grades.Message(err))
		if isUserError(err) {
			return nil
		}
		return err
	}
	fmt.Fprintln(out, res.Text)

	if res.Kind != service.KindCourse {
		return nil
	}

	png, err := grades.RenderChart(ctx, res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.chart, png, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Fprintf(out, "\nChart written to %s\n", opts.chart)
	return nil
}

func isUserError(err error) bool {
	return errors.Is(err, service.ErrEmptyQuery) ||
		errors.Is(err, service.ErrProfessorNotFound) ||
		errors.Is(err, service.ErrCourseNotFound)
}
