package handlers

import (
	"net/http"

	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/services"
)

type NewsHandler struct {
	newsService services.NewsService
}

func NewNewsHandler(ns services.NewsService) *NewsHandler {
	return &NewsHandler{newsService: ns}
}

func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
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

	news, err := h.newsService.GetNews(r.Context(), currentUserID, teamID, eventID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"news": news})
}

func (h *NewsHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
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

	var input services.NewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	news, err := h.newsService.CreateNews(r.Context(), currentUserID, teamID, eventID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"news": news}, codeAnnouncementCreated)
}

func (h *NewsHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
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

	newsID, err := getIDFromURL(r, "newsID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.newsService.DeleteNews(r.Context(), currentUserID, teamID, eventID, newsID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeAnnouncementDeleted)
}
