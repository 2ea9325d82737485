package services

import "errors"

// Shared business errors. Handlers map these onto wire result codes,
// so every failure a client can branch on has a sentinel here.
var (
	// Authentication and authorization
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("operation not allowed for the current user")
	ErrUserNotACoach   = errors.New("user is not a coach of this team")

	// Validation and business rules
	ErrEmailRequired          = errors.New("email is required")
	ErrEmailAlreadyRegistered = errors.New("email address is already registered")
	ErrEmailAlreadyVerified   = errors.New("email address is already verified")
	ErrCredentialsWrong       = errors.New("invalid email or password")
	ErrPasswordWrong          = errors.New("old password does not match")
	ErrTeamNameRequired       = errors.New("team name must be at least 3 characters")
	ErrTeamAlreadyExists      = errors.New("public team name is already in use")
	ErrUserAlreadyMember      = errors.New("user is already a member of this team")
	ErrRoleInvalid            = errors.New("invalid membership role")
	ErrSystemInvalid          = errors.New("invalid device system")
	ErrImageInvalid           = errors.New("image payload is not a valid data url")
	ErrLastCoachCantLeaveTeam = errors.New("the last coach cannot leave the team")
	ErrEventAlreadyStarted    = errors.New("event has already started")
	ErrEventNotStartedYet     = errors.New("event has not started yet")
	ErrJoinTokenNotValid      = errors.New("join token is not valid or has expired")

	// Lookup failures
	ErrUserNotFound              = errors.New("user not found")
	ErrTeamNotFound              = errors.New("team not found")
	ErrEventNotFound             = errors.New("event not found")
	ErrNewsNotFound              = errors.New("news not found")
	ErrMembershipNotFound        = errors.New("membership not found")
	ErrVerificationTokenNotFound = errors.New("verification token not found")
)
