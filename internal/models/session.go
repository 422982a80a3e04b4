package models

import "time"

// Session is a server side record of an issued session token.
// Deleting it revokes the token even before it expires.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
