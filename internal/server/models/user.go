// Package models defines the records read from and written to the
// users and messages tables.
package models

import "time"

// NewUser is the input to registration. Password is plaintext and must
// never be logged or persisted as-is.
type NewUser struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// User is a row of the users table. Depending on the operation some fields
// are left empty: registration returns the password hash without
// timestamps, lookups return timestamps without the password.
type User struct {
	Username    string    `json:"username"`
	Password    string    `json:"password,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinAt      time.Time `json:"join_at,omitzero"`
	LastLoginAt time.Time `json:"last_login_at,omitzero"`
}

// UserSummary is the public profile of a user.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// LoginStamp is the result of recording a login.
type LoginStamp struct {
	Username    string    `json:"username"`
	LastLoginAt time.Time `json:"last_login_at"`
}
