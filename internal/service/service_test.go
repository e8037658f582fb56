package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/godilite/gradebot/internal/chart"
	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/internal/extractor"
	"github.com/godilite/gradebot/internal/service/mocks"
	"github.com/godilite/gradebot/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gpa(v float64) *float64 { return &v }

// testData holds overlapping keys ("waxman" and "waxman, j") and a
// professor without courses.
func testData(t *testing.T) *dataset.Dataset {
	t.Helper()

	var ds211 dataset.GradeCounts
	ds211[dataset.APlus] = 1
	ds211[dataset.A] = 13

	b := dataset.NewBuilder()
	require.NoError(t, b.AddCourse("Waxman, J", "211", dataset.CourseRecord{CourseName: "Data Structures", AvgGPA: gpa(3.5), Grades: ds211}))
	require.NoError(t, b.AddCourse("Waxman, J", "32", dataset.CourseRecord{CourseName: "Intro to Programming", AvgGPA: gpa(3)}))
	require.NoError(t, b.AddCourse("Waxman", "400", dataset.CourseRecord{CourseName: "Compilers"}))
	require.NoError(t, b.AddCourse("J", "101", dataset.CourseRecord{CourseName: "Seminar"}))
	require.NoError(t, b.EnsureProfessor("lee", "Lee"))
	return b.Build()
}

func pngRenderer(calls *int32) *mocks.MockChartRenderer {
	return &mocks.MockChartRenderer{
		RenderFunc: func(ctx context.Context, req chart.Request) ([]byte, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			return []byte("\x89PNG " + req.Title), nil
		},
	}
}

func TestNewGradeService(t *testing.T) {
	data := testData(t)

	t.Run("valid parameters", func(t *testing.T) {
		svc := NewGradeService(data, pngRenderer(nil), nil, Options{}, zap.NewNop())

		assert.NotNil(t, svc)
		assert.Equal(t, DefaultSubject, svc.formatter.Subject)
		assert.Equal(t, DefaultPrefix, svc.formatter.Prefix)
		assert.IsType(t, cache.Noop{}, svc.cache)
	})

	t.Run("nil dataset panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGradeService(nil, pngRenderer(nil), nil, Options{}, zap.NewNop())
		})
	})

	t.Run("nil renderer panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGradeService(data, nil, nil, Options{}, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		svc := NewGradeService(data, pngRenderer(nil), nil, Options{}, nil)
		assert.NotNil(t, svc.logger)
	})
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewGradeService(testData(t), pngRenderer(nil), nil, Options{Subject: "CSCI", Prefix: "!grades"}, zap.NewNop())

	t.Run("course", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "waxman, j 211")
		require.NoError(t, err)

		assert.Equal(t, KindCourse, res.Kind)
		assert.Equal(t, "waxman, j", res.ProfessorKey)
		assert.Equal(t, "Waxman, J", res.Professor)
		assert.Equal(t, "211", res.CourseNumber)
		require.NotNil(t, res.Course)
		assert.Equal(t, 14, res.Course.Grades.Total())
		assert.True(t, strings.HasPrefix(res.Text, "**Waxman, J - Data Structures (CSCI 211)**\n"))
	})

	t.Run("listing", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "Waxman, J")
		require.NoError(t, err)

		assert.Equal(t, KindListing, res.Kind)
		assert.Nil(t, res.Course)
		assert.Empty(t, res.CourseNumber)
		assert.Contains(t, res.Text, "teaches the following courses")
	})

	t.Run("professor without courses", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "lee")
		require.NoError(t, err)
		assert.Equal(t, "No course data found for Lee.", res.Text)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.Lookup(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)

		_, err = svc.Lookup(ctx, "nobody")
		assert.ErrorIs(t, err, ErrProfessorNotFound)

		_, err = svc.Lookup(ctx, "waxman, j 999")
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Lookup(cctx, "waxman")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRenderChart(t *testing.T) {
	ctx := context.Background()

	t.Run("renders course chart once per key", func(t *testing.T) {
		var calls int32
		svc := NewGradeService(testData(t), pngRenderer(&calls), cache.NewMemory(time.Minute), Options{ChartTTL: time.Minute}, zap.NewNop())

		res, err := svc.Lookup(ctx, "waxman, j 211")
		require.NoError(t, err)

		first, err := svc.RenderChart(ctx, res)
		require.NoError(t, err)
		second, err := svc.RenderChart(ctx, res)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "\x89PNG Waxman, J - Data Structures Grade Distribution", string(first))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("chart request carries counts", func(t *testing.T) {
		renderer := &mocks.MockChartRenderer{
			RenderFunc: func(ctx context.Context, req chart.Request) ([]byte, error) {
				assert.Equal(t, "Grade", req.XLabel)
				assert.Equal(t, "Number of Students", req.YLabel)
				assert.Equal(t, 1.0, req.Values[0])
				assert.Equal(t, 13.0, req.Values[1])
				return []byte("png"), nil
			},
		}
		svc := NewGradeService(testData(t), renderer, nil, Options{}, zap.NewNop())

		res, err := svc.Lookup(ctx, "waxman, j 211")
		require.NoError(t, err)
		_, err = svc.RenderChart(ctx, res)
		require.NoError(t, err)
	})

	t.Run("listing has no chart", func(t *testing.T) {
		svc := NewGradeService(testData(t), pngRenderer(nil), nil, Options{}, zap.NewNop())

		res, err := svc.Lookup(ctx, "waxman, j")
		require.NoError(t, err)

		_, err = svc.RenderChart(ctx, res)
		assert.ErrorIs(t, err, ErrNoChart)

		_, err = svc.RenderChart(ctx, nil)
		assert.ErrorIs(t, err, ErrNoChart)
	})

	t.Run("renderer failure", func(t *testing.T) {
		wantErr := errors.New("font missing")
		renderer := &mocks.MockChartRenderer{
			RenderFunc: func(ctx context.Context, req chart.Request) ([]byte, error) {
				return nil, wantErr
			},
		}
		svc := NewGradeService(testData(t), renderer, nil, Options{}, zap.NewNop())

		res, err := svc.Lookup(ctx, "waxman 400")
		require.NoError(t, err)

		_, err = svc.RenderChart(ctx, res)
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestMessage(t *testing.T) {
	svc := NewGradeService(testData(t), pngRenderer(nil), nil, Options{}, zap.NewNop())

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", ErrEmptyQuery, "Please provide a professor's name."},
		{"professor", ErrProfessorNotFound, "Professor not found. Please check the name and try again."},
		{"course", &CourseNotFoundError{Professor: "Waxman, J", Course: "999"}, "Course 999 not found for Waxman, J."},
		{"wrapped course", errors.Join(errors.New("lookup"), &CourseNotFoundError{Professor: "Lee", Course: "1"}), "Course 1 not found for Lee."},
		{"unexpected", errors.New("disk on fire"), "Something went wrong while looking up grades."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Message(tt.err))
		})
	}
}

func TestLookup_ReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	data, _, err := extractor.New(extractor.DefaultProfile(), zap.NewNop()).ExtractFile(ctx, "../extractor/testdata/report.html")
	require.NoError(t, err)

	svc := NewGradeService(data, chart.NewRenderer(), nil, Options{}, zap.NewNop())

	res, err := svc.Lookup(ctx, "waxman, j 211")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Average GPA: 3.5\n")
	assert.Contains(t, res.Text, "\nA+: 1\nA: 13\n")

	png, err := svc.RenderChart(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	res, err = svc.Lookup(ctx, "smith, j 32")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Average GPA: unavailable\n")
}
