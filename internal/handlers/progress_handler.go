package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "harambee/internal/errors"
	"harambee/internal/pagination"
	"harambee/internal/services"
)

// ProgressHandler serves read-only progress views over the ledger.
type ProgressHandler struct {
	progressService services.ProgressServicer
	auditService    services.AuditServicer
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService services.ProgressServicer, auditService services.AuditServicer) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, auditService: auditService}
}

// GoalProgress returns the aggregate progress of a goal
// @Summary     Goal progress
// @Description Realized (completed) contributions and pending pledges against the goal target
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Goal ID"
// @Param       from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to   query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Progress "Progress"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/progress [get]
func (h *ProgressHandler) GoalProgress(c *gin.Context) {
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.progressService.GoalProgress(c.Request.Context(), goalID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GroupProgress returns a group's progress toward its share of a goal
// @Summary     Group progress
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id       path  string true  "Goal ID"
// @Param       group_id path  string true  "Group ID"
// @Param       from     query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to       query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Progress "Progress"
// @Failure     404 {object} ErrorResponse "Goal or group not found"
// @Router      /goals/{id}/groups/{group_id}/progress [get]
func (h *ProgressHandler) GroupProgress(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.progressService.GroupProgress(c.Request.Context(), p.goalID, p.groupID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// MemberProgress returns a member's goal-wide progress
// @Summary     Member progress
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Goal ID"
// @Param       member_id path  string true  "Member ID"
// @Param       from      query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to        query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Progress "Progress"
// @Failure     404 {object} ErrorResponse "Goal or member not found"
// @Router      /goals/{id}/members/{member_id}/progress [get]
func (h *ProgressHandler) MemberProgress(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.progressService.MemberProgress(c.Request.Context(), p.goalID, p.memberID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GroupMemberProgress returns a member's progress within one group
// @Summary     Group member progress
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Goal ID"
// @Param       group_id  path  string true  "Group ID"
// @Param       member_id path  string true  "Member ID"
// @Param       from      query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to        query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Progress "Progress"
// @Failure     404 {object} ErrorResponse "Goal, group or member not found"
// @Router      /goals/{id}/groups/{group_id}/members/{member_id}/progress [get]
func (h *ProgressHandler) GroupMemberProgress(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "group_id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.progressService.GroupMemberProgress(c.Request.Context(), p.goalID, p.groupID, p.memberID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GoalBreakdown returns goal progress with one row per contributing group
// @Summary     Goal breakdown by group
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Goal ID"
// @Param       from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to   query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Breakdown "Breakdown"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/breakdown [get]
func (h *ProgressHandler) GoalBreakdown(c *gin.Context) {
	h.breakdown(c, h.progressService.GoalBreakdown)
}

// GoalReport returns the breakdown over the goal's own window unless a range is given
// @Summary     Goal report
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Goal ID"
// @Param       from query string false "Inclusive start date, defaults to the goal start"
// @Param       to   query string false "Inclusive end date, defaults to the goal end"
// @Success     200 {object} services.Breakdown "Report"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/report [get]
func (h *ProgressHandler) GoalReport(c *gin.Context) {
	h.breakdown(c, h.progressService.GoalReport)
}

func (h *ProgressHandler) breakdown(c *gin.Context,
	query func(ctx context.Context, goalID string, r services.DateRange) (*services.Breakdown, error)) {
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := query(c.Request.Context(), goalID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown})
}

// Summarize totals contributions and pending pledges over arbitrary filters
// @Summary     Ledger summary
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       goal_id   query string false "Goal"
// @Param       group_id  query string false "Group"
// @Param       member_id query string false "Member"
// @Param       from      query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to        query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} services.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /summary [get]
func (h *ProgressHandler) Summarize(c *gin.Context) {
	var f services.SummaryFilter
	var err error
	if f.GoalID, err = optionalUUIDQuery(c, "goal_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if f.GroupID, err = optionalUUIDQuery(c, "group_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if f.MemberID, err = optionalUUIDQuery(c, "member_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if f.DateRange, err = parseDateRange(c); err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.progressService.Summarize(c.Request.Context(), f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// RecordSnapshot captures the goal's current progress
// @Summary     Record a progress snapshot
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     201 {object} models.GoalProgressSnapshot "Snapshot"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/snapshots [post]
func (h *ProgressHandler) RecordSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.progressService.RecordSnapshot(c.Request.Context(), goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_SNAPSHOT", "goal", goalID, c.ClientIP(),
		map[string]any{"snapshot_id": snapshot.ID})

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// ListSnapshots returns a goal's snapshots, newest first
// @Summary     List progress snapshots
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Goal ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.GoalProgressSnapshot] "Snapshots"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/snapshots [get]
func (h *ProgressHandler) ListSnapshots(c *gin.Context) {
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.progressService.ListSnapshots(c.Request.Context(), goalID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
