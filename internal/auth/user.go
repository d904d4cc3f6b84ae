// Package auth owns portal identities: registration, login, Redis-backed
// sessions, and the signed tokens that authenticate every protected route.
package auth

import "time"

// Notifications holds per-channel notification switches.
type Notifications struct {
	Email        bool `json:"email"`
	App          bool `json:"app"`
	Results      bool `json:"results"`
	Appointments bool `json:"appointments"`
}

// Preferences holds a user's portal preferences.
type Preferences struct {
	Language      string        `json:"language"`
	DarkMode      bool          `json:"darkMode"`
	Notifications Notifications `json:"notifications"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		DarkMode: false,
		Notifications: Notifications{
			Email:        true,
			App:          true,
			Results:      true,
			Appointments: true,
		},
	}
}

// User is a portal account with its profile.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	ProfileImage string      `json:"profile_image,omitempty"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Update describes a partial profile change. Nil fields are left untouched.
type Update struct {
	FullName     *string      `json:"full_name"`
	ProfileImage *string      `json:"profile_image"`
	Preferences  *Preferences `json:"preferences"`
}
