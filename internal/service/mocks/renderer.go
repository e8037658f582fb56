package mocks

import (
	"context"
	"errors"

	"github.com/godilite/gradebot/internal/chart"
)

// MockChartRenderer is a mock implementation of the ChartRenderer interface
// for testing the service layer.
type MockChartRenderer struct {
	RenderFunc func(ctx context.Context, req chart.Request) ([]byte, error)
}

// Render implements the ChartRenderer interface
func (m *MockChartRenderer) Render(ctx context.Context, req chart.Request) ([]byte, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, req)
	}
	return nil, errors.New("RenderFunc not implemented")
}
