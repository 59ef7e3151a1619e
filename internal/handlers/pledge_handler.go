package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

// PledgeHandler handles pledge requests.
type PledgeHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewPledgeHandler creates a new PledgeHandler.
func NewPledgeHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *PledgeHandler {
	return &PledgeHandler{ledgerService: ledgerService, auditService: auditService}
}

// CreatePledgeRequest represents the request payload for recording a pledge
type CreatePledgeRequest struct {
	MemberID    string          `json:"member_id" binding:"required,uuid"`
	GoalID      string          `json:"goal_id" binding:"required,uuid"`
	GroupID     *string         `json:"group_id" binding:"omitempty,uuid"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"1000.00"`
	PledgeDate  *string         `json:"pledge_date" example:"2025-03-01"`
	DueDate     string          `json:"due_date" binding:"required" example:"2025-06-30"`
	Description string          `json:"description" binding:"max=500"`
}

// UpdatePledgeRequest represents the request payload for editing a pending pledge
type UpdatePledgeRequest struct {
	GroupID     *string          `json:"group_id" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
	PledgeDate  *string          `json:"pledge_date"`
	DueDate     *string          `json:"due_date"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
}

// FulfillPledgeRequest describes the payment settling a pledge
type FulfillPledgeRequest struct {
	PaidOn        *string `json:"paid_on" example:"2025-05-15"`
	PaymentMethod string  `json:"payment_method" binding:"max=50"`
	Reference     string  `json:"reference" binding:"max=100"`
}

// FulfillPledgeResponse carries the paid pledge and the contribution it produced
type FulfillPledgeResponse struct {
	Pledge       *models.Pledge       `json:"pledge"`
	Contribution *models.Contribution `json:"contribution"`
}

// ListPledgesQuery holds the pledge list filters
type ListPledgesQuery struct {
	pagination.PageRequest
	Status string `form:"status" binding:"omitempty,pledge_status"`
}

// CreatePledge records a pledge
// @Summary     Record a pledge
// @Description Record a PENDING pledge. A confirmation SMS is sent to the member.
// @Tags        pledges
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePledgeRequest true "Pledge details"
// @Success     201 {object} models.Pledge "Pledge recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount, dates or group membership"
// @Failure     404 {object} ErrorResponse "Member, goal or group not found"
// @Router      /pledges [post]
func (h *PledgeHandler) CreatePledge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	pledgeDate, err := parseDate("pledge_date", req.PledgeDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	dueDate, err := parseDate("due_date", &req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pledge, err := h.ledgerService.CreatePledge(c.Request.Context(), userID, services.CreatePledgeInput{
		MemberID:    req.MemberID,
		GoalID:      req.GoalID,
		GroupID:     req.GroupID,
		Amount:      req.Amount,
		PledgeDate:  pledgeDate,
		DueDate:     *dueDate,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PLEDGE", "pledge", pledge.ID, c.ClientIP(),
		map[string]any{
			"member_id": pledge.MemberID,
			"goal_id":   pledge.GoalID,
			"amount":    pledge.Amount.StringFixed(2),
			"due_date":  pledge.DueDate.Format(models.DateLayout),
		})

	c.JSON(http.StatusCreated, gin.H{"pledge": pledge})
}

// GetPledge returns a single pledge
// @Summary     Get a pledge
// @Tags        pledges
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pledge ID"
// @Success     200 {object} models.Pledge "Pledge"
// @Failure     404 {object} ErrorResponse "Pledge not found"
// @Router      /pledges/{id} [get]
func (h *PledgeHandler) GetPledge(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	pledge, err := h.ledgerService.GetPledge(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pledge": pledge})
}

// ListPledges returns a page of pledges
// @Summary     List pledges
// @Tags        pledges
// @Produce     json
// @Security    BearerAuth
// @Param       member_id query string false "Member"
// @Param       goal_id   query string false "Goal"
// @Param       group_id  query string false "Group"
// @Param       status    query string false "PENDING, PAID or CANCELLED"
// @Param       from      query string false "Inclusive start pledge date (YYYY-MM-DD)"
// @Param       to        query string false "Inclusive end pledge date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Pledge] "Pledges"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /pledges [get]
func (h *PledgeHandler) ListPledges(c *gin.Context) {
	var q ListPledgesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := store.PledgeFilter{}
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
		status := models.PledgeStatus(q.Status)
		filter.Status = &status
	}

	result, err := h.ledgerService.ListPledges(c.Request.Context(), filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdatePledge edits a pending pledge
// @Summary     Update a pledge
// @Tags        pledges
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Pledge ID"
// @Param       request body UpdatePledgeRequest true "Fields to change"
// @Success     200 {object} models.Pledge "Pledge updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Pledge not found"
// @Failure     409 {object} ErrorResponse "Pledge is no longer pending"
// @Router      /pledges/{id} [put]
func (h *PledgeHandler) UpdatePledge(c *gin.Context) {
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

	var req UpdatePledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	pledgeDate, err := parseDate("pledge_date", req.PledgeDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pledge, err := h.ledgerService.UpdatePledge(c.Request.Context(), id, services.UpdatePledgeInput{
		GroupID:     req.GroupID,
		Amount:      req.Amount,
		PledgeDate:  pledgeDate,
		DueDate:     dueDate,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PLEDGE", "pledge", pledge.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"pledge": pledge})
}

// DeletePledge removes a pledge
// @Summary     Delete a pledge
// @Tags        pledges
// @Security    BearerAuth
// @Param       id path string true "Pledge ID"
// @Success     204 "Pledge deleted"
// @Failure     404 {object} ErrorResponse "Pledge not found"
// @Router      /pledges/{id} [delete]
func (h *PledgeHandler) DeletePledge(c *gin.Context) {
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

	if err := h.ledgerService.DeletePledge(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PLEDGE", "pledge", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// FulfillPledge marks a pending pledge paid and records the matching contribution
// @Summary     Fulfil a pledge
// @Description Atomically marks the pledge PAID and records a completed contribution for its amount
// @Tags        pledges
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true  "Pledge ID"
// @Param       request body FulfillPledgeRequest false "Payment details"
// @Success     200 {object} FulfillPledgeResponse "Pledge paid"
// @Failure     400 {object} ErrorResponse "Paid before the pledge date"
// @Failure     404 {object} ErrorResponse "Pledge not found"
// @Failure     409 {object} ErrorResponse "Pledge is no longer pending"
// @Router      /pledges/{id}/fulfill [post]
func (h *PledgeHandler) FulfillPledge(c *gin.Context) {
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

	var req FulfillPledgeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	paidOn, err := parseDate("paid_on", req.PaidOn)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pledge, contribution, err := h.ledgerService.FulfillPledge(c.Request.Context(), userID, id, services.FulfillPledgeInput{
		PaidOn:        paidOn,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "FULFILL_PLEDGE", "pledge", id, c.ClientIP(),
		map[string]any{"contribution_id": contribution.ID, "amount": pledge.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, FulfillPledgeResponse{Pledge: pledge, Contribution: contribution})
}

// CancelPledge cancels a pending pledge
// @Summary     Cancel a pledge
// @Tags        pledges
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pledge ID"
// @Success     200 {object} models.Pledge "Pledge cancelled"
// @Failure     404 {object} ErrorResponse "Pledge not found"
// @Failure     409 {object} ErrorResponse "Pledge is no longer pending"
// @Router      /pledges/{id}/cancel [post]
func (h *PledgeHandler) CancelPledge(c *gin.Context) {
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

	pledge, err := h.ledgerService.CancelPledge(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CANCEL_PLEDGE", "pledge", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"pledge": pledge})
}
