package handlers

import (
	"net/http"

	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/services"
)

type MembershipHandler struct {
	membershipService services.MembershipService
}

func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

func (h *MembershipHandler) GetMyMemberships(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	memberships, err := h.membershipService.GetMyMemberships(r.Context(), currentUserID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"memberships": memberships})
}

func (h *MembershipHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	membership, err := h.membershipService.GetMembershipByID(r.Context(), membershipID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"membership": membership})
}

func (h *MembershipHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Role models.MembershipRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	membership, err := h.membershipService.SetRole(r.Context(), currentUserID, membershipID, input.Role)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"membership": membership}, codeRoleChanged)
}

func (h *MembershipHandler) RemoveUserFromTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.membershipService.RemoveUserFromTeam(r.Context(), currentUserID, membershipID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeUserRemovedFromTeam)
}
