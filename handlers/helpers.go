package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/middleware"
	"github.com/futbolmvp/booking-system/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

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
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
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

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", "error", err, "path", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", "error", err, "method", r.Method, "path", r.URL.Path)
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// actorID pulls the resolved actor from the request context; writes 401 and
// returns false when the request carries no identity.
func actorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "missing actor identity")
	}
	return id, ok
}

// uuidParam parses a chi URL parameter as a UUID; writes 404 on failure since
// a malformed id can never name an existing resource.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		notFoundResponse(w, r)
		return uuid.Nil, false
	}
	return id, true
}

// mapServiceErrorToHTTP converts service-layer sentinel errors to responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrCourtNotFound),
		errors.Is(err, services.ErrRegistrationNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrCaptainNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrCourtFull),
		errors.Is(err, services.ErrCourtInUse),
		errors.Is(err, services.ErrCaptainConflict),
		errors.Is(err, services.ErrPhoneConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrCapacityBelowCount):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrEventNotOpen),
		errors.Is(err, services.ErrEventFinalized),
		errors.Is(err, services.ErrEventNotFinalized),
		errors.Is(err, services.ErrCourtClosed),
		errors.Is(err, services.ErrGuestLimitReached),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrNotConfirmed),
		errors.Is(err, services.ErrSameCourt),
		errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, services.ErrInvalidPIN),
		errors.Is(err, services.ErrTournamentNotDraft),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrTeamsCountMismatch),
		errors.Is(err, services.ErrKnockoutTeamsCount),
		errors.Is(err, services.ErrFixtureAlreadyPlayed),
		errors.Is(err, services.ErrFixtureMissing),
		errors.Is(err, services.ErrTeamHasMatches),
		errors.Is(err, services.ErrMatchNotPending),
		errors.Is(err, services.ErrMatchNotEditable),
		errors.Is(err, services.ErrMatchNotLive),
		errors.Is(err, services.ErrMatchTeamsUnset),
		errors.Is(err, services.ErrAnotherMatchLive),
		errors.Is(err, services.ErrKnockoutDraw),
		errors.Is(err, services.ErrStandingsNotApplicable):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrForbidden):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
