package telemetry

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-site/themes"
)

const (
	trackPageViewMessageType        = "site.telemetry.track_page_view"
	markNotificationReadMessageType = "site.telemetry.mark_notification_read"
)

// Store collections written by telemetry.
const (
	CollectionPageViews     = "pageViews"
	CollectionNotifications = "notifications"
)

// TrackPageView records one public page render.
type TrackPageView struct {
	ItemID   string          `json:"itemId,omitempty"`
	Slug     string          `json:"slug,omitempty"`
	PageType themes.PageType `json:"pageType"`
	At       time.Time       `json:"at"`
}

// Type implements command.Message.
func (TrackPageView) Type() string { return trackPageViewMessageType }

// Validate requires a known page type and, for detail pages, the viewed
// item.
func (m TrackPageView) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PageType, validation.Required, validation.By(func(value any) error {
			if _, ok := themes.ParsePageType(string(value.(themes.PageType))); !ok {
				return validation.NewError("site.telemetry.page_type_invalid", "page type is not supported")
			}
			return nil
		})),
		validation.Field(&m.ItemID, validation.When(m.PageType == themes.PageSlug,
			validation.Required.ErrorObject(validation.NewError("site.telemetry.item_required", "item id is required for detail pages")))),
		validation.Field(&m.At, validation.Required),
	)
}

// MarkNotificationRead flags a notification as read.
type MarkNotificationRead struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// Type implements command.Message.
func (MarkNotificationRead) Type() string { return markNotificationReadMessageType }

// Validate requires the notification id.
func (m MarkNotificationRead) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("site.telemetry.notification_required", "notification id is required")
			}
			return nil
		})),
		validation.Field(&m.At, validation.Required),
	)
}
