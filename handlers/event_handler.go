package handlers

import (
	"net/http"

	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
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

	events, err := h.eventService.GetEvents(r.Context(), currentUserID, teamID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"events": events})
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
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

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), currentUserID, teamID, eventID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"event": event})
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
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

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), currentUserID, teamID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"event": event}, codeEventCreated)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
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

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), currentUserID, teamID, eventID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"event": event}, codeEventUpdated)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
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

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), currentUserID, teamID, eventID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeEventDeleted)
}

func (h *EventHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
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

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.SendReminder(r.Context(), currentUserID, teamID, eventID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeReminderSent)
}

func (h *EventHandler) GetParticipations(w http.ResponseWriter, r *http.Request) {
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

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participations, err := h.eventService.GetParticipations(r.Context(), currentUserID, teamID, eventID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"participation": participations})
}

func (h *EventHandler) SetWillAttend(w http.ResponseWriter, r *http.Request) {
	currentUserID, teamID, eventID, userID, ok := participationParams(w, r)
	if !ok {
		return
	}

	var input struct {
		WillAttend bool `json:"willAttend"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participation, err := h.eventService.SetWillAttend(r.Context(), currentUserID, teamID, eventID, userID, input.WillAttend)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"participation": participation}, codeParticipationUpdated)
}

func (h *EventHandler) SetDidAttend(w http.ResponseWriter, r *http.Request) {
	currentUserID, teamID, eventID, userID, ok := participationParams(w, r)
	if !ok {
		return
	}

	var input struct {
		DidAttend bool `json:"didAttend"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participation, err := h.eventService.SetDidAttend(r.Context(), currentUserID, teamID, eventID, userID, input.DidAttend)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"participation": participation}, codeParticipationUpdated)
}

func participationParams(w http.ResponseWriter, r *http.Request) (currentUserID, teamID, eventID, userID int, ok bool) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return 0, 0, 0, 0, false
	}

	teamID, err = getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, 0, false
	}

	eventID, err = getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, 0, false
	}

	userID, err = getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, 0, false
	}

	return currentUserID, teamID, eventID, userID, true
}
