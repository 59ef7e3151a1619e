package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "harambee/internal/errors"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

// GroupHandler handles group and group membership requests.
type GroupHandler struct {
	groupService services.GroupServicer
	auditService services.AuditServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer, auditService services.AuditServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService, auditService: auditService}
}

// CreateGroupRequest represents the request payload for creating a group
type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=500"`
	GoalID      *string `json:"goal_id" binding:"omitempty,uuid"`
}

// UpdateGroupRequest represents the request payload for updating a group.
// An empty goal_id removes the goal scope.
type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	GoalID      *string `json:"goal_id" binding:"omitempty,uuid|eq="`
}

// AddGroupMemberRequest represents the request payload for adding a member to a group
type AddGroupMemberRequest struct {
	MemberID string `json:"member_id" binding:"required,uuid"`
}

// ListGroupsQuery holds the group list filters
type ListGroupsQuery struct {
	pagination.PageRequest
	Search string `form:"search" binding:"max=100"`
}

// CreateGroup creates a group
// @Summary     Create a group
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} models.Group "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, req.GoalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GROUP", "group", group.ID, c.ClientIP(),
		map[string]any{"name": group.Name})

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroup returns a single group
// @Summary     Get a group
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} models.Group "Group"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// ListGroups returns a page of groups
// @Summary     List groups
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       search    query string false "Name contains"
// @Param       goal_id   query string false "Goal scope"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Group] "Groups"
// @Router      /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var q ListGroupsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	goalID, err := optionalUUIDQuery(c, "goal_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.groupService.ListGroups(c.Request.Context(),
		store.GroupFilter{Search: q.Search, GoalID: goalID}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateGroup applies a partial update
// @Summary     Update a group
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Group ID"
// @Param       request body UpdateGroupRequest true "Fields to change"
// @Success     200 {object} models.Group "Group updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
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

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), id, req.Name, req.Description, req.GoalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GROUP", "group", group.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// DeleteGroup removes an unreferenced group
// @Summary     Delete a group
// @Tags        groups
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     204 "Group deleted"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     409 {object} ErrorResponse "Group has contributions or pledges"
// @Router      /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
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

	if err := h.groupService.DeleteGroup(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GROUP", "group", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// AddMember adds a member to a group
// @Summary     Add a group member
// @Tags        groups
// @Accept      json
// @Security    BearerAuth
// @Param       id      path string                true "Group ID"
// @Param       request body AddGroupMemberRequest true "Member to add"
// @Success     204 "Member added"
// @Failure     404 {object} ErrorResponse "Group or member not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.groupService.AddMember(c.Request.Context(), groupID, req.MemberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_GROUP_MEMBER", "group", groupID, c.ClientIP(),
		map[string]any{"member_id": req.MemberID})

	c.Status(http.StatusNoContent)
}

// RemoveMember removes a member from a group
// @Summary     Remove a group member
// @Tags        groups
// @Security    BearerAuth
// @Param       id        path string true "Group ID"
// @Param       member_id path string true "Member ID"
// @Success     204 "Member removed"
// @Failure     400 {object} ErrorResponse "Not a member"
// @Router      /groups/{id}/members/{member_id} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	memberID, err := parsePathID(c, "member_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), groupID, memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_GROUP_MEMBER", "group", groupID, c.ClientIP(),
		map[string]any{"member_id": memberID})

	c.Status(http.StatusNoContent)
}

// ListMembers returns the members of a group
// @Summary     List group members
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Group ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Member] "Members"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/members [get]
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.groupService.ListMembers(c.Request.Context(), groupID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
