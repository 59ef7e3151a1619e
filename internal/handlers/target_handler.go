package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "harambee/internal/errors"
	"harambee/internal/services"
)

// TargetHandler manages the group, member and group-member targets beneath a goal.
type TargetHandler struct {
	hierarchyService services.GoalHierarchyServicer
	auditService     services.AuditServicer
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(hierarchyService services.GoalHierarchyServicer, auditService services.AuditServicer) *TargetHandler {
	return &TargetHandler{hierarchyService: hierarchyService, auditService: auditService}
}

// SetGroupTargetRequest sets a group's share of a goal
type SetGroupTargetRequest struct {
	GroupID string          `json:"group_id" binding:"required,uuid"`
	Amount  decimal.Decimal `json:"amount" swaggertype:"string" example:"50000.00"`
}

// SetGoalMemberTargetRequest sets a member's goal-wide target
type SetGoalMemberTargetRequest struct {
	MemberID string          `json:"member_id" binding:"required,uuid"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"2500.00"`
}

// UpdateTargetRequest changes the amount of an existing target
type UpdateTargetRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"3000.00"`
}

// targetPath collects the ids a target route carries.
type targetPath struct {
	goalID, groupID, memberID string
}

func parseTargetPath(c *gin.Context, params ...string) (targetPath, error) {
	var p targetPath
	for _, param := range params {
		id, err := parsePathID(c, param)
		if err != nil {
			return p, err
		}
		switch param {
		case "id":
			p.goalID = id
		case "group_id":
			p.groupID = id
		case "member_id":
			p.memberID = id
		}
	}
	return p, nil
}

// SetGroupTarget assigns a target to a group within a goal
// @Summary     Set a group target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Goal ID"
// @Param       request body SetGroupTargetRequest true "Group target"
// @Success     201 {object} models.GoalGroupTarget "Target set"
// @Failure     400 {object} ErrorResponse "Invalid amount or group scoped elsewhere"
// @Failure     404 {object} ErrorResponse "Goal or group not found"
// @Failure     409 {object} ErrorResponse "Target already set"
// @Router      /goals/{id}/group-targets [post]
func (h *TargetHandler) SetGroupTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetGroupTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.SetGroupTarget(c.Request.Context(), userID, p.goalID, req.GroupID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_GROUP_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": req.GroupID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"target": target})
}

// ListGroupTargets lists the group targets of a goal
// @Summary     List group targets
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {array} models.GoalGroupTarget "Targets"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/group-targets [get]
func (h *TargetHandler) ListGroupTargets(c *gin.Context) {
	p, err := parseTargetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	targets, err := h.hierarchyService.ListGroupTargets(c.Request.Context(), p.goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// GetGroupTarget returns one group target
// @Summary     Get a group target
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id       path string true "Goal ID"
// @Param       group_id path string true "Group ID"
// @Success     200 {object} models.GoalGroupTarget "Target"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/group-targets/{group_id} [get]
func (h *TargetHandler) GetGroupTarget(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	target, err := h.hierarchyService.GetGroupTarget(c.Request.Context(), p.goalID, p.groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// UpdateGroupTarget changes a group target amount
// @Summary     Update a group target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path string              true "Goal ID"
// @Param       group_id path string              true "Group ID"
// @Param       request  body UpdateTargetRequest true "New amount"
// @Success     200 {object} models.GoalGroupTarget "Target updated"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/group-targets/{group_id} [put]
func (h *TargetHandler) UpdateGroupTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.UpdateGroupTarget(c.Request.Context(), p.goalID, p.groupID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GROUP_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": p.groupID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// DeleteGroupTarget removes a group target
// @Summary     Delete a group target
// @Tags        targets
// @Security    BearerAuth
// @Param       id       path string true "Goal ID"
// @Param       group_id path string true "Group ID"
// @Success     204 "Target deleted"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/group-targets/{group_id} [delete]
func (h *TargetHandler) DeleteGroupTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.hierarchyService.DeleteGroupTarget(c.Request.Context(), p.goalID, p.groupID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GROUP_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": p.groupID})

	c.Status(http.StatusNoContent)
}

// SetGoalMemberTarget assigns a goal-wide target to a member
// @Summary     Set a member target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                     true "Goal ID"
// @Param       request body SetGoalMemberTargetRequest true "Member target"
// @Success     201 {object} models.GoalMemberTarget "Target set"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Goal or member not found"
// @Failure     409 {object} ErrorResponse "Target already set"
// @Router      /goals/{id}/member-targets [post]
func (h *TargetHandler) SetGoalMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetGoalMemberTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.SetGoalMemberTarget(c.Request.Context(), userID, p.goalID, req.MemberID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"member_id": req.MemberID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"target": target})
}

// ListGoalMemberTargets lists the goal-wide member targets
// @Summary     List member targets
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {array} models.GoalMemberTarget "Targets"
// @Router      /goals/{id}/member-targets [get]
func (h *TargetHandler) ListGoalMemberTargets(c *gin.Context) {
	p, err := parseTargetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	targets, err := h.hierarchyService.ListGoalMemberTargets(c.Request.Context(), p.goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// GetGoalMemberTarget returns one goal-wide member target
// @Summary     Get a member target
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Goal ID"
// @Param       member_id path string true "Member ID"
// @Success     200 {object} models.GoalMemberTarget "Target"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/member-targets/{member_id} [get]
func (h *TargetHandler) GetGoalMemberTarget(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	target, err := h.hierarchyService.GetGoalMemberTarget(c.Request.Context(), p.goalID, p.memberID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// UpdateGoalMemberTarget changes a goal-wide member target
// @Summary     Update a member target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string              true "Goal ID"
// @Param       member_id path string              true "Member ID"
// @Param       request   body UpdateTargetRequest true "New amount"
// @Success     200 {object} models.GoalMemberTarget "Target updated"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/member-targets/{member_id} [put]
func (h *TargetHandler) UpdateGoalMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.UpdateGoalMemberTarget(c.Request.Context(), p.goalID, p.memberID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"member_id": p.memberID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// DeleteGoalMemberTarget removes a goal-wide member target
// @Summary     Delete a member target
// @Tags        targets
// @Security    BearerAuth
// @Param       id        path string true "Goal ID"
// @Param       member_id path string true "Member ID"
// @Success     204 "Target deleted"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/member-targets/{member_id} [delete]
func (h *TargetHandler) DeleteGoalMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.hierarchyService.DeleteGoalMemberTarget(c.Request.Context(), p.goalID, p.memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"member_id": p.memberID})

	c.Status(http.StatusNoContent)
}

// SetMemberTarget assigns a member's target within a group for a goal
// @Summary     Set a group member target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path string                     true "Goal ID"
// @Param       group_id path string                     true "Group ID"
// @Param       request  body SetGoalMemberTargetRequest true "Member target"
// @Success     201 {object} models.GoalGroupMemberTarget "Target set"
// @Failure     400 {object} ErrorResponse "Member not in group"
// @Failure     409 {object} ErrorResponse "Target already set"
// @Router      /goals/{id}/groups/{group_id}/member-targets [post]
func (h *TargetHandler) SetMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetGoalMemberTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.SetMemberTarget(c.Request.Context(), userID, p.goalID, p.groupID, req.MemberID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_GROUP_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": p.groupID, "member_id": req.MemberID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"target": target})
}

// ListMemberTargets lists member targets within a group for a goal
// @Summary     List group member targets
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id       path string true "Goal ID"
// @Param       group_id path string true "Group ID"
// @Success     200 {array} models.GoalGroupMemberTarget "Targets"
// @Router      /goals/{id}/groups/{group_id}/member-targets [get]
func (h *TargetHandler) ListMemberTargets(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	targets, err := h.hierarchyService.ListMemberTargets(c.Request.Context(), p.goalID, p.groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// GetMemberTarget returns one group member target
// @Summary     Get a group member target
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Goal ID"
// @Param       group_id  path string true "Group ID"
// @Param       member_id path string true "Member ID"
// @Success     200 {object} models.GoalGroupMemberTarget "Target"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/groups/{group_id}/member-targets/{member_id} [get]
func (h *TargetHandler) GetMemberTarget(c *gin.Context) {
	p, err := parseTargetPath(c, "id", "group_id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	target, err := h.hierarchyService.GetMemberTarget(c.Request.Context(), p.goalID, p.groupID, p.memberID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// UpdateMemberTarget changes a group member target
// @Summary     Update a group member target
// @Tags        targets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string              true "Goal ID"
// @Param       group_id  path string              true "Group ID"
// @Param       member_id path string              true "Member ID"
// @Param       request   body UpdateTargetRequest true "New amount"
// @Success     200 {object} models.GoalGroupMemberTarget "Target updated"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/groups/{group_id}/member-targets/{member_id} [put]
func (h *TargetHandler) UpdateMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "group_id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := h.hierarchyService.UpdateMemberTarget(c.Request.Context(), p.goalID, p.groupID, p.memberID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GROUP_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": p.groupID, "member_id": p.memberID, "amount": req.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"target": target})
}

// DeleteMemberTarget removes a group member target
// @Summary     Delete a group member target
// @Tags        targets
// @Security    BearerAuth
// @Param       id        path string true "Goal ID"
// @Param       group_id  path string true "Group ID"
// @Param       member_id path string true "Member ID"
// @Success     204 "Target deleted"
// @Failure     404 {object} ErrorResponse "Target not found"
// @Router      /goals/{id}/groups/{group_id}/member-targets/{member_id} [delete]
func (h *TargetHandler) DeleteMemberTarget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	p, err := parseTargetPath(c, "id", "group_id", "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.hierarchyService.DeleteMemberTarget(c.Request.Context(), p.goalID, p.groupID, p.memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GROUP_MEMBER_TARGET", "goal", p.goalID, c.ClientIP(),
		map[string]any{"group_id": p.groupID, "member_id": p.memberID})

	c.Status(http.StatusNoContent)
}

// GetAllocation compares the goal target with the targets set beneath it
// @Summary     Get target allocation
// @Description Signed unallocated amounts; negative means over-allocated
// @Tags        targets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} services.Allocation "Allocation"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/allocation [get]
func (h *TargetHandler) GetAllocation(c *gin.Context) {
	p, err := parseTargetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocation, err := h.hierarchyService.GetAllocation(c.Request.Context(), p.goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocation": allocation})
}
