package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

// OpsHandler exposes the periodic jobs to schedulers authenticated with the
// service key.
type OpsHandler struct {
	reminderService services.ReminderServicer
	goalService     services.GoalServicer
	progressService services.ProgressServicer
	now             func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(reminderService services.ReminderServicer, goalService services.GoalServicer, progressService services.ProgressServicer) *OpsHandler {
	return &OpsHandler{
		reminderService: reminderService,
		goalService:     goalService,
		progressService: progressService,
		now:             time.Now,
	}
}

// RunReminders emits reminders for pledges falling due
// @Summary     Send pledge reminders
// @Tags        ops
// @Produce     json
// @Security    ServiceKey
// @Success     200 {object} map[string]int "Reminders queued"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /ops/reminders [post]
func (h *OpsHandler) RunReminders(c *gin.Context) {
	sent, err := h.reminderService.SendDueReminders(c.Request.Context(), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": sent})
}

// SnapshotActiveGoals records a progress snapshot for every active goal
// @Summary     Snapshot active goals
// @Tags        ops
// @Produce     json
// @Security    ServiceKey
// @Success     200 {object} map[string]int "Snapshots recorded"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /ops/snapshots [post]
func (h *OpsHandler) SnapshotActiveGoals(c *gin.Context) {
	ctx := c.Request.Context()
	active := true
	status := models.GoalStatusActive
	filter := store.GoalFilter{Status: &status, IsActive: &active}
	page := pagination.PageRequest{Page: 1, PageSize: 100}

	recorded := 0
	for {
		goals, err := h.goalService.ListGoals(ctx, filter, page)
		if err != nil {
			respondWithError(c, err)
			return
		}
		for _, goal := range goals.Data {
			if _, err := h.progressService.RecordSnapshot(ctx, goal.ID); err != nil {
				logger.Get().Warnw("snapshot failed", "goal_id", goal.ID, "error", err)
				continue
			}
			recorded++
		}
		if page.Page >= goals.TotalPages {
			break
		}
		page.Page++
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": recorded})
}
