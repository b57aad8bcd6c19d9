package model

import "time"

type UserCreate struct {
	Email          string
	DisplayName    string
	PhotoURL       string
	IsAnonymous    bool
	LastSignInTime time.Time
}

type User struct {
	UID          string
	HideKeywords []string
	UserCreate
}
