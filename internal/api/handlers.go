package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/interview"

	"github.com/gin-gonic/gin"
)

// Messages published after a committed transition.
const (
	MessageVideoSubmitted    = "video-submitted"
	MessageFeedbackSubmitted = "feedback-submitted"
)

type applicationRequest struct {
	ApplicationID int64  `json:"applicationId"`
	CandidateID   int64  `json:"candidateId"`
	VacancyUUID   string `json:"vacancyUuid"`
}

func (r applicationRequest) ref() interview.ApplicationRef {
	return interview.ApplicationRef{ID: r.ApplicationID, CandidateID: r.CandidateID, VacancyUUID: r.VacancyUUID}
}

type videoSubmissionRequest struct {
	applicationRequest
	URL    string `json:"url"`
	FileID string `json:"fileId"`
}

type feedbackRequest struct {
	applicationRequest
	Status        string `json:"status"`
	Justification string `json:"justification"`
}

type interviewHandler struct {
	service   InterviewService
	publisher Publisher
	timeout   time.Duration
	logger    logger.Logger
}

func (h *interviewHandler) requestVideo(c *gin.Context) {
	var req applicationRequest
	if !bind(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.service.RequestVideo(ctx, req.ref())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, res)
}

func (h *interviewHandler) submitVideo(c *gin.Context) {
	var req videoSubmissionRequest
	if !bind(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.service.SubmitVideo(ctx, req.ref(), interview.Media{URL: req.URL, FileID: req.FileID})
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(ctx, MessageVideoSubmitted, res.ApplicationID, map[string]interface{}{
		"expiresAt": res.ExpiresAt.Format(time.RFC3339),
	})
	respond(c, res)
}

func (h *interviewHandler) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bind(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.service.SubmitFeedback(ctx, req.ref(), req.Status, req.Justification)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(ctx, MessageFeedbackSubmitted, res.ApplicationID, map[string]interface{}{
		"feedbackStatus": string(res.Decision),
		"hasVideo":       res.HasVideo,
	})
	respond(c, res)
}

func (h *interviewHandler) videoState(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.NewValidationError("application id must be a positive integer"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	view, err := h.service.State(ctx, interview.ApplicationRef{ID: id})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, view)
}

// expireVideos runs the expiry sweep and then the reviewed purge, which is
// a no-op unless enabled.
func (h *interviewHandler) expireVideos(c *gin.Context) {
	ctx := c.Request.Context()

	expired, err := h.service.ExpireSweep(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	reviewed, err := h.service.PurgeReviewedMedia(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrSweepInProgress) {
		h.logger.Warn("reviewed media purge failed", map[string]interface{}{"error": err})
	}
	if reviewed == nil {
		reviewed = &interview.SweepResult{}
	}

	respond(c, gin.H{
		"expired":  expired,
		"reviewed": reviewed,
	})
}

func (h *interviewHandler) notifyOverdue(c *gin.Context) {
	res, err := h.service.NotifyOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, res)
}

func (h *interviewHandler) publish(ctx context.Context, name string, applicationID int64, vars map[string]interface{}) {
	if h.publisher == nil {
		return
	}
	vars["applicationId"] = applicationID
	if err := h.publisher.PublishMessage(ctx, name, strconv.FormatInt(applicationID, 10), vars); err != nil {
		h.logger.Warn("failed to publish interview event", map[string]interface{}{
			"message":       name,
			"applicationId": applicationID,
			"error":         err,
		})
	}
}

func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.NewValidationError("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	c.JSON(StatusFor(stdErr.Code), gin.H{
		"success": false,
		"error":   stdErr.Message,
		"details": stdErr.Details,
		"code":    string(stdErr.Code),
	})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeAlreadyFeedbacked,
		apperrors.ErrCodeVideoAlreadyRequested,
		apperrors.ErrCodeVideoDeadlinePassed,
		apperrors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case apperrors.ErrCodeValidationFailed, apperrors.ErrCodeInvalidDecision:
		return http.StatusBadRequest
	case apperrors.ErrCodeSweepInProgress:
		return http.StatusLocked
	case apperrors.ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
