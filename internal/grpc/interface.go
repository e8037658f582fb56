package grpc

import (
	"context"

	"github.com/godilite/gradebot/internal/service"
)

// GradeService is the query surface the handlers serve.
type GradeService interface {
	Lookup(ctx context.Context, args string) (*service.Result, error)
	RenderChart(ctx context.Context, res *service.Result) ([]byte, error)
	Message(err error) string
}
