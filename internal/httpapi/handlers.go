package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/internal/service"
	"go.uber.org/zap"
)

type GradeService interface {
	Lookup(ctx context.Context, args string) (*service.Result, error)
	RenderChart(ctx context.Context, res *service.Result) ([]byte, error)
	Message(err error) string
}

type Handler struct {
	grades GradeService
	logger *zap.Logger
}

func NewHandler(grades GradeService, logger *zap.Logger) *Handler {
	if grades == nil {
		panic("nil GradeService provided to NewHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{grades: grades, logger: logger.Named("http-handler")}
}

type gradesResponse struct {
	Kind         string `json:"kind"`
	Text         string `json:"text"`
	Professor    string `json:"professor"`
	ProfessorKey string `json:"professor_key"`
	*courseBody
}

// courseBody is present only for course results. A missing GPA is sent as
// null.
type courseBody struct {
	CourseNumber string              `json:"course_number"`
	CourseName   string              `json:"course_name"`
	AvgGPA       *float64            `json:"avg_gpa"`
	Grades       dataset.GradeCounts `json:"grades"`
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// getGrades answers GET /api/v1/grades?q=<professor> [course number].
func (h *Handler) getGrades(c *gin.Context) {
	res, err := h.grades.Lookup(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gradesResponse{
		Kind:         string(res.Kind),
		Text:         res.Text,
		Professor:    res.Professor,
		ProfessorKey: res.ProfessorKey,
	}
	if res.Course != nil {
		body.courseBody = &courseBody{
			CourseNumber: res.CourseNumber,
			CourseName:   res.Course.CourseName,
			AvgGPA:       res.Course.AvgGPA,
			Grades:       res.Course.Grades,
		}
	}

	c.JSON(http.StatusOK, body)
}

// getGradeChart answers GET /api/v1/grades/chart?q=<professor> <course number>
// with a PNG.
func (h *Handler) getGradeChart(c *gin.Context) {
	ctx := c.Request.Context()

	res, err := h.grades.Lookup(ctx, c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	png, err := h.grades.RenderChart(ctx, res)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := h.grades.Message(err)

	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrProfessorNotFound), errors.Is(err, service.ErrCourseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoChart):
		status = http.StatusConflict
		msg = "A course number is required to render a chart."
	default:
		h.logger.Error("grades request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": msg})
}
