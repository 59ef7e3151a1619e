package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

// ContributionHandler handles contribution requests.
type ContributionHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewContributionHandler creates a new ContributionHandler.
func NewContributionHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *ContributionHandler {
	return &ContributionHandler{ledgerService: ledgerService, auditService: auditService}
}

// CreateContributionRequest represents the request payload for recording a contribution
type CreateContributionRequest struct {
	MemberID         string          `json:"member_id" binding:"required,uuid"`
	GoalID           string          `json:"goal_id" binding:"required,uuid"`
	GroupID          *string         `json:"group_id" binding:"omitempty,uuid"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Status           string          `json:"status" binding:"omitempty,contribution_status"`
	PledgeDate       *string         `json:"pledge_date" example:"2025-03-01"`
	ContributionDate *string         `json:"contribution_date" example:"2025-03-05"`
	PaymentMethod    string          `json:"payment_method" binding:"max=50"`
	Reference        string          `json:"reference" binding:"max=100"`
	Description      string          `json:"description" binding:"max=500"`
}

// UpdateContributionRequest represents the request payload for editing a contribution
type UpdateContributionRequest struct {
	GroupID          *string          `json:"group_id" binding:"omitempty,uuid"`
	Amount           *decimal.Decimal `json:"amount" swaggertype:"string"`
	ContributionDate *string          `json:"contribution_date"`
	PaymentMethod    *string          `json:"payment_method" binding:"omitempty,max=50"`
	Reference        *string          `json:"reference" binding:"omitempty,max=100"`
	Description      *string          `json:"description" binding:"omitempty,max=500"`
}

// CompleteContributionRequest optionally dates the completion
type CompleteContributionRequest struct {
	ContributionDate *string `json:"contribution_date" example:"2025-03-05"`
}

// ListContributionsQuery holds the contribution list filters
type ListContributionsQuery struct {
	pagination.PageRequest
	Status string `form:"status" binding:"omitempty,contribution_status"`
}

// CreateContribution records a contribution
// @Summary     Record a contribution
// @Description Record a completed (default) or pending contribution. Completed contributions trigger a confirmation SMS.
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateContributionRequest true "Contribution details"
// @Success     201 {object} models.Contribution "Contribution recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount, date or group membership"
// @Failure     404 {object} ErrorResponse "Member, goal or group not found"
// @Router      /contributions [post]
func (h *ContributionHandler) CreateContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	pledgeDate, err := parseDate("pledge_date", req.PledgeDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	contributionDate, err := parseDate("contribution_date", req.ContributionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := h.ledgerService.CreateContribution(c.Request.Context(), userID, services.CreateContributionInput{
		MemberID:         req.MemberID,
		GoalID:           req.GoalID,
		GroupID:          req.GroupID,
		Amount:           req.Amount,
		Status:           models.ContributionStatus(req.Status),
		PledgeDate:       pledgeDate,
		ContributionDate: contributionDate,
		PaymentMethod:    req.PaymentMethod,
		Reference:        req.Reference,
		Description:      req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CONTRIBUTION", "contribution", contribution.ID, c.ClientIP(),
		map[string]any{
			"member_id": contribution.MemberID,
			"goal_id":   contribution.GoalID,
			"amount":    contribution.Amount.StringFixed(2),
			"status":    contribution.Status,
		})

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution})
}

// GetContribution returns a single contribution
// @Summary     Get a contribution
// @Tags        contributions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Contribution ID"
// @Success     200 {object} models.Contribution "Contribution"
// @Failure     404 {object} ErrorResponse "Contribution not found"
// @Router      /contributions/{id} [get]
func (h *ContributionHandler) GetContribution(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := h.ledgerService.GetContribution(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contribution": contribution})
}

// ListContributions returns a page of contributions
// @Summary     List contributions
// @Tags        contributions
// @Produce     json
// @Security    BearerAuth
// @Param       member_id query string false "Member"
// @Param       goal_id   query string false "Goal"
// @Param       group_id  query string false "Group"
// @Param       status    query string false "pending, completed, failed or refunded"
// @Param       from      query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to        query string false "Inclusive end date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Contribution] "Contributions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /contributions [get]
func (h *ContributionHandler) ListContributions(c *gin.Context) {
	var q ListContributionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := store.ContributionFilter{}
	var err error
	if filter.MemberID, err = optionalUUIDQuery(c, "member_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.GoalID, err = optionalUUIDQuery(c, "goal_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.GroupID, err = optionalUUIDQuery(c, "group_id"); err != nil {
		respondWithError(c, err)
		return
	}
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.From, filter.To = r.From, r.To
	if q.Status != "" {
		status := models.ContributionStatus(q.Status)
		filter.Status = &status
	}

	result, err := h.ledgerService.ListContributions(c.Request.Context(), filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateContribution edits a non-terminal contribution
// @Summary     Update a contribution
// @Description The amount can only change while the contribution is pending
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Contribution ID"
// @Param       request body UpdateContributionRequest true "Fields to change"
// @Success     200 {object} models.Contribution "Contribution updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contribution not found"
// @Failure     409 {object} ErrorResponse "Not editable in its current status"
// @Router      /contributions/{id} [put]
func (h *ContributionHandler) UpdateContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	contributionDate, err := parseDate("contribution_date", req.ContributionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := h.ledgerService.UpdateContribution(c.Request.Context(), id, services.UpdateContributionInput{
		GroupID:          req.GroupID,
		Amount:           req.Amount,
		ContributionDate: contributionDate,
		PaymentMethod:    req.PaymentMethod,
		Reference:        req.Reference,
		Description:      req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CONTRIBUTION", "contribution", contribution.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"contribution": contribution})
}

// DeleteContribution removes a contribution
// @Summary     Delete a contribution
// @Tags        contributions
// @Security    BearerAuth
// @Param       id path string true "Contribution ID"
// @Success     204 "Contribution deleted"
// @Failure     404 {object} ErrorResponse "Contribution not found"
// @Router      /contributions/{id} [delete]
func (h *ContributionHandler) DeleteContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteContribution(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CONTRIBUTION", "contribution", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// CompleteContribution marks a pending contribution completed
// @Summary     Complete a contribution
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                      true  "Contribution ID"
// @Param       request body CompleteContributionRequest false "Completion date"
// @Success     200 {object} models.Contribution "Contribution completed"
// @Failure     409 {object} ErrorResponse "Not pending"
// @Router      /contributions/{id}/complete [post]
func (h *ContributionHandler) CompleteContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CompleteContributionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	on, err := parseDate("contribution_date", req.ContributionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := h.ledgerService.CompleteContribution(c.Request.Context(), id, on)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COMPLETE_CONTRIBUTION", "contribution", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"contribution": contribution})
}

// FailContribution marks a pending contribution failed
// @Summary     Fail a contribution
// @Tags        contributions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Contribution ID"
// @Success     200 {object} models.Contribution "Contribution failed"
// @Failure     409 {object} ErrorResponse "Not pending"
// @Router      /contributions/{id}/fail [post]
func (h *ContributionHandler) FailContribution(c *gin.Context) {
	h.transition(c, "FAIL_CONTRIBUTION", h.ledgerService.FailContribution)
}

// RefundContribution marks a completed contribution refunded
// @Summary     Refund a contribution
// @Tags        contributions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Contribution ID"
// @Success     200 {object} models.Contribution "Contribution refunded"
// @Failure     409 {object} ErrorResponse "Not completed"
// @Router      /contributions/{id}/refund [post]
func (h *ContributionHandler) RefundContribution(c *gin.Context) {
	h.transition(c, "REFUND_CONTRIBUTION", h.ledgerService.RefundContribution)
}

func (h *ContributionHandler) transition(c *gin.Context, action string,
	apply func(ctx context.Context, id string) (*models.Contribution, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := apply(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "contribution", id, c.ClientIP(),
		map[string]any{"status": contribution.Status})

	c.JSON(http.StatusOK, gin.H{"contribution": contribution})
}
