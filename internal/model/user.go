package model

import "time"

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	HouseholdID *string   `json:"household_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicUser is the representation returned by auth endpoints. The password
// hash never leaves the store, but the id/username pair is all the client
// needs to identify itself.
type PublicUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	HouseholdID *string `json:"household_id,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, HouseholdID: u.HouseholdID}
}
