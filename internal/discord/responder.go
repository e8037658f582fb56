package discord

import (
	"context"
	"time"

	"github.com/godilite/gradebot/internal/service"
	"go.uber.org/zap"
)

const (
	ChartFilename = "grade_chart.png"
	BusyMessage   = "Too many requests right now, please try again shortly."

	jobTimeout = 30 * time.Second
)

type GradeService interface {
	Lookup(ctx context.Context, args string) (*service.Result, error)
	RenderChart(ctx context.Context, res *service.Result) ([]byte, error)
	Message(err error) string
}

// Sender delivers replies to a channel.
type Sender interface {
	SendText(ctx context.Context, channelID, content string) error
	SendImage(ctx context.Context, channelID, content, filename string, png []byte) error
}

// Responder answers one job: lookup, optional chart, reply.
type Responder struct {
	grades GradeService
	sender Sender
	logger *zap.Logger
}

func NewResponder(grades GradeService, sender Sender, logger *zap.Logger) *Responder {
	if grades == nil {
		panic("nil GradeService provided to NewResponder")
	}
	if sender == nil {
		panic("nil Sender provided to NewResponder")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{grades: grades, sender: sender, logger: logger.Named("responder")}
}

// Handle is a JobHandler.
func (r *Responder) Handle(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	logger := r.logger.With(
		zap.String("request_id", job.ID),
		zap.String("channel_id", job.ChannelID),
		zap.String("author_id", job.AuthorID))

	res, err := r.grades.Lookup(ctx, job.Args)
	if err != nil {
		logger.Info("grades lookup rejected", zap.String("args", job.Args), zap.Error(err))
		r.sendText(ctx, logger, job.ChannelID, r.grades.Message(err))
		return
	}

	if res.Kind != service.KindCourse {
		r.sendText(ctx, logger, job.ChannelID, res.Text)
		return
	}

	png, err := r.grades.RenderChart(ctx, res)
	if err != nil {
		logger.Error("chart render failed, replying without chart", zap.Error(err))
		r.sendText(ctx, logger, job.ChannelID, res.Text)
		return
	}

	if err := r.sender.SendImage(ctx, job.ChannelID, res.Text, ChartFilename, png); err != nil {
		logger.Error("failed to send reply", zap.Error(err))
		return
	}
	logger.Info("replied with chart",
		zap.String("professor", res.ProfessorKey),
		zap.String("course", res.CourseNumber),
		zap.Int("chart_bytes", len(png)))
}

func (r *Responder) sendText(ctx context.Context, logger *zap.Logger, channelID, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := r.sender.SendText(ctx, channelID, chunk); err != nil {
			logger.Error("failed to send reply", zap.Error(err))
			return
		}
	}
}
