package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/storehub/backend/internal/application/identity"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/interfaces/http/middleware"
)

// OrganizationHandler serves the caller's organization and its members
type OrganizationHandler struct {
	BaseHandler
	orgService *identityapp.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgService *identityapp.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// Get godoc
// @ID           getOrganization
// @Summary      Current organization
// @Tags         organization
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.OrganizationInfo]
// @Security     BearerAuth
// @Router       /organization [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	org, err := h.orgService.GetCurrent(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update the organization profile
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateOrganizationRequest true "Profile"
// @Success      200 {object} APIResponse[identityapp.OrganizationInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organization [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var req identityapp.UpdateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.Update(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// ListMembers godoc
// @ID           listOrganizationMembers
// @Summary      List members
// @Tags         organization
// @Produce      json
// @Success      200 {object} APIResponse[[]identityapp.MemberResponse]
// @Security     BearerAuth
// @Router       /organization/members [get]
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	members, err := h.orgService.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, members)
}

// AddMember godoc
// @ID           addOrganizationMember
// @Summary      Add a member
// @Description  Grants an existing user a role. Only owners may grant OWNER.
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body identityapp.AddMemberRequest true "Member"
// @Success      201 {object} APIResponse[identityapp.MemberResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organization/members [post]
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var req identityapp.AddMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}
	member, err := h.orgService.AddMember(c.Request.Context(), orgID, identity.Role(middleware.GetJWTRole(c)), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, member)
}

// RemoveMember godoc
// @ID           removeOrganizationMember
// @Summary      Remove a member
// @Description  The last owner cannot be removed
// @Tags         organization
// @Param        user_id path string true "User ID" format(uuid)
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organization/members/{user_id} [delete]
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	userID, ok := h.pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.orgService.RemoveMember(c.Request.Context(), orgID, identity.Role(middleware.GetJWTRole(c)), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
