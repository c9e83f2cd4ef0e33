package model

import "time"

// Member roles. A manager may edit quests and manage membership; a plain
// member may claim and complete quests.
const (
	RoleMember  = "member"
	RoleManager = "manager"
)

func ValidRole(role string) bool {
	return role == RoleMember || role == RoleManager
}

// Member is a household-scoped profile bound to a user, carrying the
// gamification counters shown on the leaderboard and profile screens.
type Member struct {
	ID          int64     `json:"id"`
	HouseholdID string    `json:"household_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	Title       string    `json:"title"`
	Role        string    `json:"role"`
	XP          int       `json:"xp"`
	Level       int       `json:"level"`
	Streak      int       `json:"streak"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
