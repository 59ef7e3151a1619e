package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "harambee/internal/errors"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

// MemberHandler handles member-related requests.
type MemberHandler struct {
	memberService services.MemberServicer
	auditService  services.AuditServicer
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberService services.MemberServicer, auditService services.AuditServicer) *MemberHandler {
	return &MemberHandler{memberService: memberService, auditService: auditService}
}

// CreateMemberRequest represents the request payload for creating a member
type CreateMemberRequest struct {
	FullName string   `json:"full_name" binding:"required,max=200"`
	Phone    string   `json:"phone" binding:"required,phone"`
	Email    *string  `json:"email" binding:"omitempty,email,max=255"`
	Aliases  []string `json:"aliases" binding:"omitempty,max=10,dive,max=100"`
}

// UpdateMemberRequest represents the request payload for updating a member
type UpdateMemberRequest struct {
	FullName *string  `json:"full_name" binding:"omitempty,max=200"`
	Phone    *string  `json:"phone" binding:"omitempty,phone"`
	Email    *string  `json:"email" binding:"omitempty,email,max=255"`
	Aliases  []string `json:"aliases" binding:"omitempty,max=10,dive,max=100"`
	IsActive *bool    `json:"is_active"`
}

// ListMembersQuery holds the member list filters
type ListMembersQuery struct {
	pagination.PageRequest
	Search     string `form:"search" binding:"max=100"`
	MemberCode string `form:"member_code" binding:"omitempty,member_code"`
	IsActive   *bool  `form:"is_active"`
}

// CreateMember registers a new member
// @Summary     Create a member
// @Description Register a member; a unique 6-digit member code is generated
// @Tags        members
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMemberRequest true "Member details"
// @Success     201 {object} models.Member "Member created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate phone"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), userID, services.CreateMemberInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Aliases:  req.Aliases,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_MEMBER", "member", member.ID, c.ClientIP(),
		map[string]any{"member_code": member.MemberCode})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// GetMember returns a single member
// @Summary     Get a member
// @Tags        members
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Member ID"
// @Success     200 {object} models.Member "Member"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Router      /members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	member, err := h.memberService.GetMember(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// ListMembers returns a page of members
// @Summary     List members
// @Description Search members by name, phone or member code
// @Tags        members
// @Produce     json
// @Security    BearerAuth
// @Param       search      query string false "Name, phone or member code"
// @Param       member_code query string false "Exact 6-digit member code"
// @Param       is_active   query bool   false "Active flag"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Member] "Members"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	var q ListMembersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.memberService.ListMembers(c.Request.Context(),
		store.MemberFilter{Search: q.Search, MemberCode: q.MemberCode, IsActive: q.IsActive}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateMember applies a partial update
// @Summary     Update a member
// @Tags        members
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Member ID"
// @Param       request body UpdateMemberRequest true "Fields to change"
// @Success     200 {object} models.Member "Member updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Failure     409 {object} ErrorResponse "Duplicate phone"
// @Router      /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
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

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), id, services.UpdateMemberInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Aliases:  req.Aliases,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_MEMBER", "member", member.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// DeleteMember removes an unreferenced member
// @Summary     Delete a member
// @Tags        members
// @Security    BearerAuth
// @Param       id path string true "Member ID"
// @Success     204 "Member deleted"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Failure     409 {object} ErrorResponse "Member has contributions or pledges"
// @Router      /members/{id} [delete]
func (h *MemberHandler) DeleteMember(c *gin.Context) {
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

	if err := h.memberService.DeleteMember(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_MEMBER", "member", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}


// ListNotifications returns the SMS history for a member
// @Summary     List member notifications
// @Tags        members
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Member ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Router      /members/{id}/notifications [get]
func (h *MemberHandler) ListNotifications(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.memberService.ListNotifications(c.Request.Context(), id, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
