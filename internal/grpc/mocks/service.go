package mocks

import (
	"context"
	"errors"

	"github.com/godilite/gradebot/internal/service"
)

// MockGradeService is a mock implementation of the GradeService interface
// for testing the transport layers.
type MockGradeService struct {
	LookupFunc      func(ctx context.Context, args string) (*service.Result, error)
	RenderChartFunc func(ctx context.Context, res *service.Result) ([]byte, error)
	MessageFunc     func(err error) string
}

// Lookup implements the GradeService interface
func (m *MockGradeService) Lookup(ctx context.Context, args string) (*service.Result, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, args)
	}
	return nil, errors.New("LookupFunc not implemented")
}

// RenderChart implements the GradeService interface
func (m *MockGradeService) RenderChart(ctx context.Context, res *service.Result) ([]byte, error) {
	if m.RenderChartFunc != nil {
		return m.RenderChartFunc(ctx, res)
	}
	return nil, errors.New("RenderChartFunc not implemented")
}

// Message implements the GradeService interface
func (m *MockGradeService) Message(err error) string {
	if m.MessageFunc != nil {
		return m.MessageFunc(err)
	}
	return err.Error()
}
