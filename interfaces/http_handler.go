package interfaces

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"interview-coach/domain"
	"interview-coach/service"
)

type HTTPHandler struct {
	Jobs       *service.JobManager
	Status     *service.StatusReader
	Interviews *service.InterviewService
	Log        logrus.FieldLogger
}

func NewHTTPHandler(router *gin.Engine, h *HTTPHandler) {
	router.GET("/healthz", h.Healthz)

	api := router.Group("/api")
	api.POST("/feedback", h.SubmitFeedback)
	api.GET("/feedback", h.GetFeedback)
	api.GET("/interviews/generate", h.GenerateHealth)
	api.POST("/interviews/generate", h.GenerateInterview)
	api.GET("/interviews/latest", h.LatestInterviews)
	api.GET("/interviews/:id", h.GetInterview)
	api.GET("/users/:userId/interviews", h.UserInterviews)

	router.GET("/interviews/:id/feedback", h.FeedbackPage)
}

type submitFeedbackRequest struct {
	InterviewID string            `json:"interviewId" binding:"required"`
	UserID      string            `json:"userId" binding:"required"`
	Transcript  domain.Transcript `json:"transcript" binding:"required"`
	FeedbackID  string            `json:"feedbackId"`
}

// SubmitFeedback starts a feedback job and answers before scoring finishes.
func (h *HTTPHandler) SubmitFeedback(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	id, err := h.Jobs.Submit(c.Request.Context(), service.SubmitRequest{
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "feedbackId": id})
	case errors.Is(err, domain.ErrInvalidTranscript), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInterviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// GetFeedback returns the raw status record for an interview and user.
func (h *HTTPHandler) GetFeedback(c *gin.Context) {
	interviewID := strings.TrimSpace(c.Query("interviewId"))
	userID := strings.TrimSpace(c.Query("userId"))
	if interviewID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "interviewId and userId are required"})
		return
	}

	feedback, err := h.Status.Get(c.Request.Context(), interviewID, userID)
	if errors.Is(err, domain.ErrFeedbackNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "feedback not found"})
		return
	}
	if err != nil {
		h.Log.WithError(err).Warn("feedback read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load feedback"})
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// FeedbackPage serves the view that pollers re-fetch on every tick.
func (h *HTTPHandler) FeedbackPage(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	if userID == "" {
		c.JSON(http.StatusOK, domain.FeedbackView{State: domain.ViewRedirect, RedirectTo: domain.DefaultRedirect})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.Status.View(c.Request.Context(), c.Param("id"), userID))
}

// GenerateHealth checks that the store accepts writes.
func (h *HTTPHandler) GenerateHealth(c *gin.Context) {
	if err := h.Interviews.Health(c.Request.Context()); err != nil {
		h.Log.WithError(err).Error("health check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "API health check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "API endpoint is healthy and database connection is working"})
}

func (h *HTTPHandler) GenerateInterview(c *gin.Context) {
	var req service.GenerateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	interview, err := h.Interviews.Generate(c.Request.Context(), req)
	var missing *domain.MissingFieldsError
	var malformed *domain.MalformedResponseError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "interviewId": interview.ID})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":       false,
			"error":         "Missing required fields",
			"missingFields": missing.Fields,
		})
	case errors.As(err, &malformed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":     false,
			"error":       malformed.Error(),
			"rawResponse": malformed.Raw,
		})
	default:
		h.Log.WithError(err).Error("interview generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Server error",
			"message": err.Error(),
		})
	}
}

func (h *HTTPHandler) GetInterview(c *gin.Context) {
	interview, err := h.Interviews.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrInterviewNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "interview not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, interview)
}

func (h *HTTPHandler) UserInterviews(c *gin.Context) {
	interviews, err := h.Interviews.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": nonNil(interviews)})
}

func (h *HTTPHandler) LatestInterviews(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid limit"})
			return
		}
		limit = n
	}
	interviews, err := h.Interviews.ListLatest(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": nonNil(interviews)})
}

func (h *HTTPHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func nonNil(in []domain.Interview) []domain.Interview {
	if in == nil {
		return []domain.Interview{}
	}
	return in
}
