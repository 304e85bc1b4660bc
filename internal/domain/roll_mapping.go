package domain

import "time"

// RollNumberMapping records the latest roll number change of a user. There
// is one mapping per user; a newer change replaces the previous one.
type RollNumberMapping struct {
	UserID        string    `json:"userId"`
	OldRollNumber string    `json:"oldRollNumber"`
	NewRollNumber string    `json:"newRollNumber"`
	ChangedAt     time.Time `json:"changedAt"`
}

// RollNumberMappingFromDocument decodes a stored mapping.
func RollNumberMappingFromDocument(id string, data map[string]any) *RollNumberMapping {
	return &RollNumberMapping{
		UserID:        id,
		OldRollNumber: getString(data, "oldRollNumber"),
		NewRollNumber: getString(data, "newRollNumber"),
		ChangedAt:     getTime(data, "changedAt"),
	}
}
