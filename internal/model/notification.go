package model

import "time"

// Notification types produced by the overdue-quest sweep.
const (
	NotificationFallingBehind = "falling_behind"
	NotificationOverdue       = "overdue"
)

type Notification struct {
	ID          int64     `json:"id"`
	HouseholdID string    `json:"household_id"`
	QuestID     int64     `json:"quest_id"`
	MemberID    *int64    `json:"member_id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
