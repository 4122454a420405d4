package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not found
	ErrEventNotFound        = errors.New("event not found")
	ErrCourtNotFound        = errors.New("court not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrMemberNotFound       = errors.New("team member not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrCaptainNotFound      = errors.New("captain assignment not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Registration and event state
	ErrEventNotOpen       = errors.New("event is not open for registration")
	ErrEventFinalized     = errors.New("event is finalized")
	ErrEventNotFinalized  = errors.New("event is not finalized")
	ErrCourtClosed        = errors.New("court is closed")
	ErrCourtFull          = errors.New("court has no free slots")
	ErrGuestLimitReached  = errors.New("guest registration limit reached for this event")
	ErrAlreadyCancelled   = errors.New("registration is already cancelled")
	ErrNotConfirmed       = errors.New("registration is not confirmed")
	ErrSameCourt          = errors.New("registration is already on this court")
	ErrCourtInUse         = errors.New("court still has registrations")
	ErrCapacityBelowCount = errors.New("capacity cannot drop below confirmed count")

	// Conflicts
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	ErrCaptainConflict   = errors.New("user is already a captain of this court")
	ErrPhoneConflict     = errors.New("phone number is already registered")
	ErrTeamNameConflict  = errors.New("team name is already taken in this tournament")

	// Authentication and authorization
	ErrForbidden          = errors.New("operation not allowed for the current user")
	ErrInvalidCredentials = errors.New("invalid phone or PIN")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Validation
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidPhone     = errors.New("phone number is not valid")
	ErrInvalidPIN       = errors.New("PIN must be 4 or 6 digits")

	// Tournaments
	ErrTournamentNotDraft       = errors.New("tournament is not in draft")
	ErrInvalidStatusTransition  = errors.New("invalid tournament status transition")
	ErrTeamsCountMismatch       = errors.New("registered teams do not match the configured count")
	ErrKnockoutTeamsCount       = errors.New("knockout supports 4, 8 or 16 teams")
	ErrFixtureAlreadyPlayed     = errors.New("fixture has matches already played")
	ErrFixtureMissing           = errors.New("tournament has no generated fixture")
	ErrTeamHasMatches           = errors.New("team is referenced by generated matches")
	ErrMatchNotPending          = errors.New("match is not pending")
	ErrMatchNotEditable         = errors.New("match score can only change while live or finished")
	ErrMatchNotLive             = errors.New("match is not live")
	ErrMatchTeamsUnset          = errors.New("match does not have both teams assigned")
	ErrAnotherMatchLive         = errors.New("another match of this tournament is already live")
	ErrKnockoutDraw             = errors.New("knockout matches cannot end in a draw")
	ErrStandingsNotApplicable   = errors.New("standings are only computed for round robin tournaments")
	ErrPublicTokenGeneration    = errors.New("could not generate a unique public token")
)
