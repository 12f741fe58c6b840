// Package auth defines domain types for operator tokens.
package auth

import "time"

// Token is a signed operator token.
type Token struct {
	Value     string
	Subject   string
	ExpiresAt time.Time
}

// Claims are the verified claims of an operator token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
