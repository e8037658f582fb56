// Package service answers grade queries against a loaded dataset.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/gradebot/internal/chart"
	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSubject = "CSCI"
	DefaultPrefix  = "!grades"

	renderTimeout = 10 * time.Second
)

var ErrNoChart = errors.New("result has no chart")

// Options tune how results are worded and cached.
type Options struct {
	Subject  string
	Prefix   string
	ChartTTL time.Duration
}

// GradeService resolves queries, formats replies and renders charts.
type GradeService struct {
	data      *dataset.Dataset
	renderer  ChartRenderer
	cache     cache.Cacher
	sf        singleflight.Group
	formatter Formatter
	chartTTL  time.Duration
	logger    *zap.Logger
}

// NewGradeService creates a new GradeService instance. A nil cache disables
// chart caching.
func NewGradeService(data *dataset.Dataset, renderer ChartRenderer, c cache.Cacher, opts Options, logger *zap.Logger) *GradeService {
	if data == nil {
		panic("dataset must not be nil")
	}
	if renderer == nil {
		panic("renderer must not be nil")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	return &GradeService{
		data:      data,
		renderer:  renderer,
		cache:     c,
		formatter: Formatter{Subject: opts.Subject, Prefix: opts.Prefix},
		chartTTL:  opts.ChartTTL,
		logger:    logger.Named("grade-service"),
	}
}

// Lookup resolves args and formats the reply text.
func (s *GradeService) Lookup(ctx context.Context, args string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := Resolve(s.data, args)
	if err != nil {
		s.logger.Debug("query not resolved", zap.String("args", args), zap.Error(err))
		return nil, err
	}

	out := &Result{
		ProfessorKey: res.Professor.Key,
		Professor:    res.Professor.DisplayName,
	}
	if res.Course == nil {
		out.Kind = KindListing
		out.Text = s.formatter.Listing(res.Professor)
	} else {
		out.Kind = KindCourse
		out.CourseNumber = res.CourseNumber
		out.Course = res.Course
		out.Text = s.formatter.Course(res.Professor, res.CourseNumber, *res.Course)
	}

	s.logger.Info("resolved grades query",
		zap.String("professor", out.ProfessorKey),
		zap.String("course", out.CourseNumber),
		zap.String("kind", string(out.Kind)))

	return out, nil
}

// RenderChart returns the PNG chart for a course result.
func (s *GradeService) RenderChart(ctx context.Context, res *Result) ([]byte, error) {
	if res == nil || res.Kind != KindCourse || res.Course == nil {
		return nil, ErrNoChart
	}

	key := fmt.Sprintf("chart:%s:%s", res.ProfessorKey, res.CourseNumber)
	req := chart.GradeRequest(res.Professor, res.Course.CourseName, res.Course.Grades)

	return cache.FindAndCache(ctx, s.cache, &s.sf, key, s.chartTTL, s.logger, func(ctx context.Context) ([]byte, error) {
		renderCtx, cancel := context.WithTimeout(ctx, renderTimeout)
		defer cancel()

		png, err := s.renderer.Render(renderCtx, req)
		if err != nil {
			return nil, fmt.Errorf("render chart %s: %w", key, err)
		}
		return png, nil
	})
}

// Message returns the text shown to a user for err. Unexpected errors get a
// generic reply.
func (s *GradeService) Message(err error) string {
	var notFound *CourseNotFoundError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Please provide a professor's name."
	case errors.Is(err, ErrProfessorNotFound):
		return "Professor not found. Please check the name and try again."
	case errors.As(err, &notFound):
		return fmt.Sprintf("Course %s not found for %s.", notFound.Course, notFound.Professor)
	default:
		s.logger.Error("grades query failed", zap.Error(err))
		return "Something went wrong while looking up grades."
	}
}
