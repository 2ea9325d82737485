package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

func (h *TeamHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	membership, err := h.teamService.RegisterTeam(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"membership": membership}, codeTeamRegistered)
}

func (h *TeamHandler) EditTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EditTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.EditTeam(r.Context(), currentUserID, teamID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"team": team}, codeUpdatedTeam)
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.DeleteTeam(r.Context(), currentUserID, teamID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeTeamDeleted)
}

func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// validDays comes from the query string; clients POST without a
	// body. The service falls back to 7 when absent or invalid.
	validDays, _ := strconv.Atoi(r.URL.Query().Get("validDays"))

	url, err := h.teamService.Invite(r.Context(), currentUserID, teamID, validDays)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"url": url}, codeInvitationCreated)
}

func (h *TeamHandler) JoinPrivateTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	token := chi.URLParam(r, "token")

	membership, err := h.teamService.JoinPrivateTeam(r.Context(), currentUserID, token)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"membership": membership}, codeTeamJoined)
}

func (h *TeamHandler) JoinPublicTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	membership, err := h.teamService.JoinPublicTeam(r.Context(), currentUserID, teamID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"membership": membership}, codeTeamJoined)
}

func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.LeaveTeam(r.Context(), currentUserID, teamID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeLeftTeam)
}

func (h *TeamHandler) GetTeamMembers(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.teamService.GetTeamMembers(r.Context(), currentUserID, teamID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"members": members})
}

func (h *TeamHandler) GetMyTeams(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	teams, err := h.teamService.GetMyTeams(r.Context(), currentUserID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"teams": teams})
}

// GetPublicTeam serves the unauthenticated public-team lookup.
func (h *TeamHandler) GetPublicTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetPublicTeamByID(r.Context(), teamID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"team": team})
}
