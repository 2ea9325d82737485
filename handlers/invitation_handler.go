package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coach-plus/backend/services"
)

type InvitationHandler struct {
	teamService services.TeamService
}

func NewInvitationHandler(ts services.TeamService) *InvitationHandler {
	return &InvitationHandler{teamService: ts}
}

// PreviewInvitation resolves an invitation token to its team, so the
// join page can show what the user is about to join. Unauthenticated.
func (h *InvitationHandler) PreviewInvitation(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	invitation, err := h.teamService.PreviewInvitation(r.Context(), token)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"invitation": invitation})
}
