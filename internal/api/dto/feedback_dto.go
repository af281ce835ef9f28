package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/academy-portal/internal/domain"
)

// ResolveModalRequest payload for POST /feedback/modal/:id.
type ResolveModalRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

func (r *ResolveModalRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// LoaderResponse reports the loader state.
type LoaderResponse struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// NotificationsResponse lists the held notifications.
type NotificationsResponse struct {
	Data        []domain.Notification `json:"data"`
	UnreadCount int                   `json:"unread_count"`
	State       string                `json:"state"`
}
