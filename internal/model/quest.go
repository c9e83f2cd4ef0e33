package model

import "time"

// Quest lifecycle states. A quest only ever moves forward:
// open -> in-progress -> completed.
const (
	QuestOpen       = "open"
	QuestInProgress = "in-progress"
	QuestCompleted  = "completed"
)

// Quest types, matching the two themed boards in the UI.
const (
	QuestTypeMountain = "mountain"
	QuestTypeOcean    = "ocean"
)

func ValidQuestStatus(status string) bool {
	return status == QuestOpen || status == QuestInProgress || status == QuestCompleted
}

func ValidQuestType(t string) bool {
	return t == QuestTypeMountain || t == QuestTypeOcean
}

type Quest struct {
	ID          int64      `json:"id"`
	HouseholdID string     `json:"household_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XP          int        `json:"xp"`
	Difficulty  int        `json:"difficulty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	AssigneeID  *int64     `json:"assignee_id"`
	Steps       []string   `json:"steps"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
