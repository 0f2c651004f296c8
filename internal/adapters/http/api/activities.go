package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/mergington/internal/adapters/repository"
	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/logger"
	"github.com/okian/mergington/pkg/metrics"
)

// Response details for rejected roster operations.
const (
	detailNotFound          = "Activity not found"
	detailAlreadyRegistered = "Student is already signed up for this activity"
	detailNotRegistered     = "Student is not registered for this activity"
	detailInternal          = "internal error"
)

// ActivityDependencies defines the roster operations used by the handlers.
type ActivityDependencies interface {
	ListActivities(ctx context.Context) (model.Directory, error)
	Signup(ctx context.Context, activity, email string) (model.Confirmation, error)
	Unregister(ctx context.Context, activity, email string) (model.Confirmation, error)
}

// rosterRequest is the input of signup and unregister.
type rosterRequest struct {
	Activity string `path:"activity_name" validate:"required"`
	Email    string `query:"email" validate:"required"`
}

// ActivitiesHandler handles activity listing and roster changes.
type ActivitiesHandler struct {
	deps     ActivityDependencies
	validate *validator.Validate
}

// NewActivitiesHandler creates a new activities handler.
func NewActivitiesHandler(deps ActivityDependencies) *ActivitiesHandler {
	v := validator.New()
	// Report fields by their request name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "path"} {
			if name := f.Tag.Get(tag); name != "" {
				return name
			}
		}
		return f.Name
	})
	return &ActivitiesHandler{deps: deps, validate: v}
}

// HandleList handles GET /activities requests.
func (h *ActivitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_activities"
	dir, err := h.deps.ListActivities(r.Context())
	if err != nil {
		logger.Get().Error(r.Context(), "listing activities failed", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	out := make(map[string]activityView, len(dir))
	for name, a := range dir {
		out[name] = toView(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSignup handles POST /activities/{activity}/signup?email=... requests.
func (h *ActivitiesHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	const op = "api.signup"
	req, err := h.bind(r)
	if err != nil {
		h.writeInvalid(w, r, op, err)
		return
	}

	conf, err := h.deps.Signup(r.Context(), req.Activity, req.Email)
	if err != nil {
		writeRosterError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", conf.Email, conf.Activity),
	})
}

// HandleUnregister handles POST /activities/{activity}/unregister?email=... requests.
func (h *ActivitiesHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	const op = "api.unregister"
	req, err := h.bind(r)
	if err != nil {
		h.writeInvalid(w, r, op, err)
		return
	}

	conf, err := h.deps.Unregister(r.Context(), req.Activity, req.Email)
	if err != nil {
		writeRosterError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", conf.Email, conf.Activity),
	})
}

// bind reads the request. A whitespace-only email counts as missing, but a
// valid email is passed on exactly as sent.
func (h *ActivitiesHandler) bind(r *http.Request) (rosterRequest, error) {
	email := r.URL.Query().Get("email")
	req := rosterRequest{
		Activity: r.PathValue("activity"),
		Email:    strings.TrimSpace(email),
	}
	if err := h.validate.Struct(req); err != nil {
		return rosterRequest{}, err
	}
	req.Email = email
	return req, nil
}

func (h *ActivitiesHandler) writeInvalid(w http.ResponseWriter, r *http.Request, op string, err error) {
	operation := strings.TrimPrefix(op, "api.")
	if mErr := metrics.RecordRejection(operation, metrics.ReasonInvalidRequest); mErr != nil {
		logger.Get().Warn(r.Context(), "rejection not counted", logger.Error(mErr))
	}
	logger.Get().Debug(r.Context(), "invalid roster request", logger.Error(WrapKind(op, ErrValidation, err)))
	writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
}

// validationDetail renders the first failed field as "<field> is <tag>".
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s is %s", verrs[0].Field(), verrs[0].Tag())
	}
	return ErrValidation.Error()
}

func writeRosterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, detailNotFound)
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, detailAlreadyRegistered)
	case errors.Is(err, repository.ErrNotRegistered):
		writeError(w, http.StatusBadRequest, detailNotRegistered)
	default:
		logger.Get().Error(r.Context(), "roster operation failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, detailInternal)
	}
}
