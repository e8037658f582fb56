package service

import (
	"context"

	"github.com/godilite/gradebot/internal/chart"
)

// ChartRenderer draws a chart request as PNG.
type ChartRenderer interface {
	Render(ctx context.Context, req chart.Request) ([]byte, error)
}
