package domain

// NotificationType classifies notifications written by the workflow.
type NotificationType string

const (
	NotificationLeaveAssigned NotificationType = "LEAVE_ASSIGNED"
	NotificationLeaveStatus   NotificationType = "LEAVE_STATUS"
	NotificationLeaveReminder NotificationType = "LEAVE_REMINDER"
)

// Notification is a message addressed to one user. It is stored flat and in
// the recipient's division partition.
type Notification struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	RollNumber string            `json:"rollNumber,omitempty"`
	Email      string            `json:"email,omitempty"`
	Type       NotificationType  `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"isRead"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Fields renders the stored representation without timestamps.
func (n *Notification) Fields() map[string]any {
	attrs := make(map[string]any, len(n.Attributes))
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	return map[string]any{
		"id":         n.ID,
		"userId":     n.UserID,
		"rollNumber": n.RollNumber,
		"type":       string(n.Type),
		"title":      n.Title,
		"message":    n.Message,
		"isRead":     n.IsRead,
		"attributes": attrs,
	}
}
