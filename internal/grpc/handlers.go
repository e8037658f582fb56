package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultGRPCTimeout = 10 * time.Second

type GRPCHandlers struct {
	grades GradeService
	logger *zap.Logger
}

var _ GradeQueryServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(grades GradeService, logger *zap.Logger) *GRPCHandlers {
	if grades == nil {
		panic("nil GradeService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		grades: grades,
		logger: logger.Named("grpc-handler"),
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		return status.Error(codes.InvalidArgument, s.grades.Message(err))
	case errors.Is(err, service.ErrProfessorNotFound), errors.Is(err, service.ErrCourseNotFound):
		s.logger.Info("grades not found", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, s.grades.Message(err))
	case errors.Is(err, service.ErrNoChart):
		return status.Error(codes.FailedPrecondition, "a course number is required to render a chart")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, s.grades.Message(err))
	}
}

func (s *GRPCHandlers) Lookup(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := s.grades.Lookup(ctx, req.GetValue())
	if err != nil {
		return nil, s.handleError(ctx, "Lookup", err)
	}

	out, err := resultToStruct(res)
	if err != nil {
		return nil, s.handleError(ctx, "Lookup", err)
	}
	return out, nil
}

func (s *GRPCHandlers) RenderChart(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := s.grades.Lookup(ctx, req.GetValue())
	if err != nil {
		return nil, s.handleError(ctx, "RenderChart", err)
	}

	png, err := s.grades.RenderChart(ctx, res)
	if err != nil {
		return nil, s.handleError(ctx, "RenderChart", err)
	}

	return wrapperspb.Bytes(png), nil
}

func resultToStruct(res *service.Result) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":          string(res.Kind),
		"text":          res.Text,
		"professor":     res.Professor,
		"professor_key": res.ProfessorKey,
	}

	if res.Course != nil {
		fields["course_number"] = res.CourseNumber
		fields["course_name"] = res.Course.CourseName

		if gpa, ok := res.Course.GPA(); ok {
			fields["avg_gpa"] = gpa
		} else {
			fields["avg_gpa"] = nil
		}

		grades := make([]any, 0, dataset.NumLabels)
		for _, label := range dataset.Labels() {
			grades = append(grades, map[string]any{
				"label": label.String(),
				"count": res.Course.Grades.Get(label),
			})
		}
		fields["grades"] = grades
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return out, nil
}
