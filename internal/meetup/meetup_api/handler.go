package meetup_api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/auth"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/meetup"
	"ms-meetup/internal/models"
	"ms-meetup/internal/utils"
	"ms-meetup/internal/validation"
)

type Handler struct {
	MeetupService *meetup.MeetupService
	Gate          *validation.Gate
	Logger        *logger.Logger
}

func NewHandler(meetupService *meetup.MeetupService, gate *validation.Gate, log *logger.Logger) *Handler {
	return &Handler{
		MeetupService: meetupService,
		Gate:          gate,
		Logger:        log,
	}
}

// RegisterRoutes mounts the meetup endpoints. Callers apply authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/meetups", func(r chi.Router) {
		r.Get("/", h.ListMeetups)
		r.Post("/", h.CreateMeetup)
		r.Put("/{id}", h.UpdateMeetup)
		r.Delete("/{id}", h.DeleteMeetup)
	})
	r.Get("/organizing", h.ListOrganizing)
}

// ListMeetups serves the day listing when a date filter is given and the
// requester's own meetups otherwise.
func (h *Handler) ListMeetups(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		h.ListOrganizing(w, r)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("ListMeetups: date=%s page=%s", raw, r.URL.Query().Get("page")))

	day, err := h.Gate.Day(raw)
	if err != nil {
		h.fail(w, "ListMeetups", err)
		return
	}
	page, err := h.Gate.Page(r.URL.Query().Get("page"))
	if err != nil {
		h.fail(w, "ListMeetups", err)
		return
	}

	meetups, err := h.MeetupService.ListByDay(r.Context(), day, page)
	if err != nil {
		h.fail(w, "ListMeetups", err)
		return
	}
	h.respond(w, "ListMeetups", http.StatusOK, models.MeetupViews(meetups))
}

func (h *Handler) ListOrganizing(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("ListOrganizing: userId=%d", userID))

	meetups, err := h.MeetupService.ListOwned(r.Context(), userID)
	if err != nil {
		h.fail(w, "ListOrganizing", err)
		return
	}
	h.respond(w, "ListOrganizing", http.StatusOK, models.MeetupViews(meetups))
}

func (h *Handler) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("CreateMeetup: userId=%d", userID))

	input, err := h.Gate.Meetup(r.Body, validation.Create)
	if err != nil {
		h.fail(w, "CreateMeetup", err)
		return
	}

	created, err := h.MeetupService.Create(r.Context(), userID, input)
	if err != nil {
		h.fail(w, "CreateMeetup", err)
		return
	}
	h.respond(w, "CreateMeetup", http.StatusOK, created)
}

func (h *Handler) UpdateMeetup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("UpdateMeetup: meetupId=%s userId=%d", chi.URLParam(r, "id"), userID))

	input, err := h.Gate.Meetup(r.Body, validation.Update)
	if err != nil {
		h.fail(w, "UpdateMeetup", err)
		return
	}
	id, err := h.Gate.ID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "UpdateMeetup", err)
		return
	}

	summary, err := h.MeetupService.Update(r.Context(), id, userID, input)
	if err != nil {
		h.fail(w, "UpdateMeetup", err)
		return
	}
	h.respond(w, "UpdateMeetup", http.StatusOK, summary)
}

func (h *Handler) DeleteMeetup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("DeleteMeetup: meetupId=%s userId=%d", chi.URLParam(r, "id"), userID))

	id, err := h.Gate.ID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "DeleteMeetup", err)
		return
	}

	if err := h.MeetupService.Delete(r.Context(), id, userID); err != nil {
		h.fail(w, "DeleteMeetup", err)
		return
	}

	if err := utils.WriteMessage(w, http.StatusOK, "Meetup deleted"); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteMeetup: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", "DeleteMeetup: response sent successfully")
}

func (h *Handler) respond(w http.ResponseWriter, op string, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: failed to encode response: %v", op, err))
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("%s: response sent successfully", op))
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteAppError(w, err)
}
