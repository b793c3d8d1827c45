package domain

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is the system-maintained audit block of a notification.
type Metadata struct {
	CreatedDate     time.Time  `json:"createdDate"`
	CreatedByUserID string     `json:"createdByUserId,omitempty"`
	UpdatedDate     *time.Time `json:"updatedDate,omitempty"`
	UpdatedByUserID string     `json:"updatedByUserId,omitempty"`
}

// Notification is the core domain entity, owned by the tenant's notification store.
type Notification struct {
	ID              string         `json:"id,omitempty"`
	RecipientID     string         `json:"recipientId"`
	EventConfigName string         `json:"eventConfigName,omitempty"`
	Lang            string         `json:"lang,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	Text            string         `json:"text,omitempty"`
	Link            string         `json:"link,omitempty"`
	Seen            bool           `json:"seen"`
	Metadata        *Metadata      `json:"metadata,omitempty"`
}

// NotificationPage is one page of a filtered listing plus the total match count.
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	TotalRecords  int64           `json:"totalRecords"`
}

// TemplateBinding selects one template to render for an event.
type TemplateBinding struct {
	TemplateID      string `json:"templateId"`
	DeliveryChannel string `json:"deliveryChannel"`
	OutputFormat    string `json:"outputFormat"`
}

// EventConfig maps an event name to the ordered templates rendered for it.
type EventConfig struct {
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name"`
	Active    bool              `json:"active,omitempty"`
	Templates []TemplateBinding `json:"templates"`
}

// Attachment is an opaque rendered attachment passed through to delivery.
type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ContentID   string `json:"contentId,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	Data        string `json:"data,omitempty"`
}

// RenderRequest asks the template engine to render a single template.
type RenderRequest struct {
	TemplateID   string         `json:"templateId"`
	OutputFormat string         `json:"outputFormat"`
	Lang         string         `json:"lang,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// RenderResult is the template engine's answer. OutputFormat is the format the engine actually produced.
type RenderResult struct {
	Header       string       `json:"header"`
	Body         string       `json:"body"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	OutputFormat string       `json:"outputFormat"`
}

// Message is one rendered message ready for delivery.
type Message struct {
	DeliveryChannel string       `json:"deliveryChannel"`
	Header          string       `json:"header"`
	Body            string       `json:"body"`
	OutputFormat    string       `json:"outputFormat"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// DeliveryRequest is sent once per dispatch. NotificationID is always freshly generated.
type DeliveryRequest struct {
	NotificationID  string    `json:"notificationId"`
	RecipientUserID string    `json:"recipientUserId"`
	Messages        []Message `json:"messages"`
}

// NewDeliveryRequest builds a request with a new dispatch-scoped id.
func NewDeliveryRequest(recipientID string, messages []Message) DeliveryRequest {
	return DeliveryRequest{
		NotificationID:  uuid.NewString(),
		RecipientUserID: recipientID,
		Messages:        messages,
	}
}

// PatronNotice is a single-template notice that is rendered and delivered without being stored.
type PatronNotice struct {
	RecipientID     string         `json:"recipientId"`
	TemplateID      string         `json:"templateId"`
	DeliveryChannel string         `json:"deliveryChannel"`
	OutputFormat    string         `json:"outputFormat"`
	Lang            string         `json:"lang,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}

// Binding returns the notice's template binding.
func (p PatronNotice) Binding() TemplateBinding {
	return TemplateBinding{
		TemplateID:      p.TemplateID,
		DeliveryChannel: p.DeliveryChannel,
		OutputFormat:    p.OutputFormat,
	}
}

// IsValidUUID reports whether s is a syntactically valid, hyphenated UUID.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
