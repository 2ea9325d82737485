package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/services"
)

type UserHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewUserHandler(as services.AuthService, us services.UserService) *UserHandler {
	return &UserHandler{
		authService: as,
		userService: us,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{
		"token": token,
		"user":  user.Reduce(true),
	}, codeUserRegistered)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{
		"token": token,
		"user":  user.Reduce(true),
	})
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeEmailVerified)
}

func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	if err := h.authService.ResendVerification(r.Context(), currentUserID); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeVerificationSent)
}

func (h *UserHandler) RequestNewPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.authService.RequestNewPassword(r.Context(), input.Email); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codeNewPasswordSent)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	user, err := h.userService.GetMe(r.Context(), currentUserID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"user": user.Reduce(true)})
}

func (h *UserHandler) UpdateInformation(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	var input services.UpdateInformationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateInformation(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"user": user.Reduce(true)})
}

func (h *UserHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	var input struct {
		Image string `json:"image"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateImage(r.Context(), currentUserID, input.Image)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"user": user.Reduce(true)})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	var input struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), currentUserID, input.OldPassword, input.NewPassword); err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, nil, codePasswordChanged)
}

func (h *UserHandler) UpsertDevice(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	targetUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.DeviceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	device, err := h.userService.UpsertDevice(r.Context(), currentUserID, targetUserID, input)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccessCode(w, map[string]interface{}{"device": device}, codeDeviceRegistered)
}

func (h *UserHandler) GetUserMemberships(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w)
		return
	}

	targetUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	memberships, err := h.userService.GetUserMemberships(r.Context(), currentUserID, targetUserID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}

	sendSuccess(w, map[string]interface{}{"memberships": memberships})
}
