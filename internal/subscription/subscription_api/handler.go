package subscription_api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/auth"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/models"
	"ms-meetup/internal/subscription"
	"ms-meetup/internal/utils"
	"ms-meetup/internal/validation"
)

type Handler struct {
	SubscriptionService *subscription.SubscriptionService
	Gate                *validation.Gate
	Logger              *logger.Logger
}

func NewHandler(subscriptionService *subscription.SubscriptionService, gate *validation.Gate, log *logger.Logger) *Handler {
	return &Handler{
		SubscriptionService: subscriptionService,
		Gate:                gate,
		Logger:              log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.ListSubscriptions)
		r.Post("/{meetupId}", h.Subscribe)
	})
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("ListSubscriptions: userId=%d", userID))

	subscriptions, err := h.SubscriptionService.ListUpcoming(r.Context(), userID)
	if err != nil {
		h.fail(w, "ListSubscriptions", err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, models.SubscriptionViews(subscriptions)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSubscriptions: failed to encode response: %v", err))
	}
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("Subscribe: meetupId=%s userId=%d", chi.URLParam(r, "meetupId"), userID))

	meetupID, err := h.Gate.ID(chi.URLParam(r, "meetupId"))
	if err != nil {
		h.fail(w, "Subscribe", err)
		return
	}

	sub, err := h.SubscriptionService.Subscribe(r.Context(), userID, meetupID)
	if err != nil {
		h.fail(w, "Subscribe", err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, sub); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Subscribe: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", "Subscribe: response sent successfully")
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
