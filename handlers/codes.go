package handlers

import "net/http"

// responseCode pairs the machine-readable message of the envelope with
// its fixed HTTP status. Clients branch on the message, never on the
// status alone.
type responseCode struct {
	Message string
	Status  int
}

var (
	// Errors
	codeUnauthenticated     = responseCode{"Unauthenticated", http.StatusUnauthorized}
	codeUnauthorized        = responseCode{"Unauthorized", http.StatusForbidden}
	codeInternalServerError = responseCode{"InternalServerError", http.StatusInternalServerError}
	codeBadRequest          = responseCode{"BadRequest", http.StatusBadRequest}

	codeTeamNotFound              = responseCode{"TeamNotFound", http.StatusNotFound}
	codeEventNotFound             = responseCode{"EventNotFound", http.StatusNotFound}
	codeUserNotFound              = responseCode{"UserNotFound", http.StatusNotFound}
	codeNewsNotFound              = responseCode{"NewsNotFound", http.StatusNotFound}
	codeMembershipNotFound        = responseCode{"MembershipNotFound", http.StatusNotFound}
	codeVerificationTokenNotFound = responseCode{"VerificationTokenNotFound", http.StatusNotFound}
	codeJoinTokenNotValid         = responseCode{"JoinTokenNotValid", http.StatusNotFound}

	codeTeamAlreadyExists      = responseCode{"TeamAlreadyExists", http.StatusBadRequest}
	codeEmailAlreadyRegistered = responseCode{"EmailAlreadyRegistered", http.StatusBadRequest}
	codeUserAlreadyMember      = responseCode{"UserAlreadyMember", http.StatusBadRequest}
	codeRoleInvalid            = responseCode{"RoleInvalid", http.StatusBadRequest}
	codeSystemInvalid          = responseCode{"SystemInvalid", http.StatusBadRequest}
	codeEmailRequired          = responseCode{"EmailRequired", http.StatusBadRequest}
	codeCredentialsWrong       = responseCode{"CredentialsWrong", http.StatusBadRequest}
	codePasswordWrong          = responseCode{"PasswordWrong", http.StatusBadRequest}
	codeTeamNameRequired       = responseCode{"TeamNameRequired", http.StatusBadRequest}
	codeImageInvalid           = responseCode{"ImageInvalid", http.StatusBadRequest}

	codeEventAlreadyStarted  = responseCode{"EventAlreadyStarted", http.StatusPreconditionFailed}
	codeEventNotStartedYet   = responseCode{"EventNotStartedYet", http.StatusPreconditionFailed}
	codeEmailAlreadyVerified = responseCode{"EmailAlreadyVerified", http.StatusPreconditionFailed}
	codeUserNotACoach        = responseCode{"UserNotACoach", http.StatusPreconditionFailed}

	codeLastCoachCantLeaveTeam = responseCode{"LastCoachCantLeaveTeam", http.StatusConflict}

	// Successes
	codeSuccess              = responseCode{"Success", http.StatusOK}
	codeUserRegistered       = responseCode{"UserRegistered", http.StatusOK}
	codeEmailVerified        = responseCode{"EmailVerified", http.StatusOK}
	codeVerificationSent     = responseCode{"VerificationSent", http.StatusOK}
	codeNewPasswordSent      = responseCode{"NewPasswordSent", http.StatusOK}
	codePasswordChanged      = responseCode{"PasswordChanged", http.StatusOK}
	codeDeviceRegistered     = responseCode{"DeviceRegistered", http.StatusOK}
	codeTeamRegistered       = responseCode{"TeamRegistered", http.StatusOK}
	codeUpdatedTeam          = responseCode{"UpdatedTeam", http.StatusOK}
	codeTeamDeleted          = responseCode{"TeamDeleted", http.StatusOK}
	codeTeamJoined           = responseCode{"TeamJoined", http.StatusOK}
	codeLeftTeam             = responseCode{"LeftTeam", http.StatusOK}
	codeInvitationCreated    = responseCode{"InvitationCreated", http.StatusOK}
	codeRoleChanged          = responseCode{"RoleChanged", http.StatusOK}
	codeUserRemovedFromTeam  = responseCode{"UserRemovedFromTeam", http.StatusOK}
	codeEventCreated         = responseCode{"EventCreated", http.StatusOK}
	codeEventUpdated         = responseCode{"EventUpdated", http.StatusOK}
	codeEventDeleted         = responseCode{"EventDeleted", http.StatusOK}
	codeReminderSent         = responseCode{"ReminderSent", http.StatusOK}
	codeParticipationUpdated = responseCode{"ParticipationUpdated", http.StatusOK}
	codeAnnouncementCreated  = responseCode{"AnnouncementCreated", http.StatusOK}
	codeAnnouncementDeleted  = responseCode{"AnnouncementDeleted", http.StatusOK}
)
