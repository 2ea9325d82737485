package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coach-plus/backend/services"
)

// envelope is the wire shape of every response.
type envelope struct {
	Success bool        `json:"success"`
	Content interface{} `json:"content"`
	Message string      `json:"message"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 10_485_760 // 10MB, image payloads arrive as data URLs
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "http: request body too large"):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func sendSuccess(w http.ResponseWriter, content interface{}) {
	sendSuccessCode(w, content, codeSuccess)
}

func sendSuccessCode(w http.ResponseWriter, content interface{}, code responseCode) {
	if err := writeJSON(w, code.Status, envelope{Success: true, Content: content, Message: code.Message}); err != nil {
		slog.Error("failed to write response", slog.Any("error", err))
	}
}

func sendErrorCode(w http.ResponseWriter, code responseCode) {
	if err := writeJSON(w, code.Status, envelope{Success: false, Content: nil, Message: code.Message}); err != nil {
		slog.Error("failed to write response", slog.Any("error", err))
	}
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "bad request", slog.String("path", r.URL.Path), slog.Any("error", err))
	sendErrorCode(w, codeBadRequest)
}

func unauthorizedResponse(w http.ResponseWriter) {
	sendErrorCode(w, codeUnauthenticated)
}

// mapServiceError translates a service failure into its wire code.
// Unexpected errors are logged in full and reported only as
// InternalServerError.
func mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		sendErrorCode(w, codeUnauthenticated)
	case errors.Is(err, services.ErrUnauthorized):
		sendErrorCode(w, codeUnauthorized)
	case errors.Is(err, services.ErrUserNotACoach):
		sendErrorCode(w, codeUserNotACoach)

	case errors.Is(err, services.ErrTeamNotFound):
		sendErrorCode(w, codeTeamNotFound)
	case errors.Is(err, services.ErrEventNotFound):
		sendErrorCode(w, codeEventNotFound)
	case errors.Is(err, services.ErrUserNotFound):
		sendErrorCode(w, codeUserNotFound)
	case errors.Is(err, services.ErrNewsNotFound):
		sendErrorCode(w, codeNewsNotFound)
	case errors.Is(err, services.ErrMembershipNotFound):
		sendErrorCode(w, codeMembershipNotFound)
	case errors.Is(err, services.ErrVerificationTokenNotFound):
		sendErrorCode(w, codeVerificationTokenNotFound)
	case errors.Is(err, services.ErrJoinTokenNotValid):
		sendErrorCode(w, codeJoinTokenNotValid)

	case errors.Is(err, services.ErrTeamAlreadyExists):
		sendErrorCode(w, codeTeamAlreadyExists)
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		sendErrorCode(w, codeEmailAlreadyRegistered)
	case errors.Is(err, services.ErrUserAlreadyMember):
		sendErrorCode(w, codeUserAlreadyMember)
	case errors.Is(err, services.ErrRoleInvalid):
		sendErrorCode(w, codeRoleInvalid)
	case errors.Is(err, services.ErrSystemInvalid):
		sendErrorCode(w, codeSystemInvalid)
	case errors.Is(err, services.ErrEmailRequired):
		sendErrorCode(w, codeEmailRequired)
	case errors.Is(err, services.ErrCredentialsWrong):
		sendErrorCode(w, codeCredentialsWrong)
	case errors.Is(err, services.ErrPasswordWrong):
		sendErrorCode(w, codePasswordWrong)
	case errors.Is(err, services.ErrTeamNameRequired):
		sendErrorCode(w, codeTeamNameRequired)
	case errors.Is(err, services.ErrImageInvalid):
		sendErrorCode(w, codeImageInvalid)

	case errors.Is(err, services.ErrEventAlreadyStarted):
		sendErrorCode(w, codeEventAlreadyStarted)
	case errors.Is(err, services.ErrEventNotStartedYet):
		sendErrorCode(w, codeEventNotStartedYet)
	case errors.Is(err, services.ErrEmailAlreadyVerified):
		sendErrorCode(w, codeEmailAlreadyVerified)

	case errors.Is(err, services.ErrLastCoachCantLeaveTeam):
		sendErrorCode(w, codeLastCoachCantLeaveTeam)

	default:
		slog.ErrorContext(r.Context(), "internal server error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		sendErrorCode(w, codeInternalServerError)
	}
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}
