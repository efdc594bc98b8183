package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/challenge"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

// maxBodyBytes caps request bodies; marketplace rituals are the largest.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Clock returns the current time. Handlers take one so date-dependent flows
// can be driven from tests.
type Clock func() time.Time

type base struct {
	logger *slog.Logger
	now    Clock
}

func newBase(logger *slog.Logger, now Clock) base {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return base{logger: logger, now: now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to its HTTP status and writes {error, code}. Internal
// errors are logged and replaced by a generic message.
func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(domainError(err))
	if e.Kind == apperr.KindInternal {
		b.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", e.Err)
	}
	writeJSON(w, apperr.Status(e.Kind), map[string]string{"error": e.Message, "code": string(e.Kind)})
}

// domainError converts store and domain sentinels into typed errors.
func domainError(err error) error {
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		return apperr.Conflict("Email already registered")
	case errors.Is(err, store.ErrRitualNotFound):
		return apperr.NotFound("Ritual not found")
	case errors.Is(err, store.ErrSessionCompleted):
		return apperr.Validation("Session already completed")
	case errors.Is(err, store.ErrChallengeExists):
		return apperr.Conflict("A challenge with this title already exists")
	case errors.Is(err, store.ErrAlreadyJoined):
		return apperr.Conflict("Already joined this challenge")
	case errors.Is(err, store.ErrNotJoined):
		return apperr.NotFound("Not joined to this challenge")
	case errors.Is(err, store.ErrAlreadyMember):
		return apperr.Validation("Already a member of this circle")
	case errors.Is(err, store.ErrNotMember):
		return apperr.NotFound("Not a member of this circle")
	case errors.Is(err, store.ErrOwnerCannotLeave):
		return apperr.Validation("Circle owner cannot leave")
	case errors.Is(err, challenge.ErrAlreadyCheckedIn):
		return apperr.Validation("Already checked in today")
	case errors.Is(err, challenge.ErrNotActive):
		return apperr.Validation("Challenge is not active")
	}
	return err
}

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return apperr.Validation(validationMessage(ve[0]))
		}
		return apperr.Validation("Invalid request")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = fe.StructField()
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "excludesall":
		return fmt.Sprintf("%s must not contain %q", field, fe.Param())
	}
	return field + " is invalid"
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func validationRequired(field string) error {
	return apperr.Validation(field + " is required")
}
