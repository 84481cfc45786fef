// Package domain holds anti forgery token types
package domain

import "time"

// HeaderToken carries the token on state changing requests
const HeaderToken = "X-CSRF-Token"

// Caller facing messages
const (
	MsgForbidden = "Skjemaet er utløpt. Last inn siden på nytt og prøv igjen."
	MsgDisabled  = "Skjemaet er midlertidig utilgjengelig. Prøv igjen senere."
	MsgThrottled = "For mange forespørsler. Prøv igjen senere."
)

// Token is the issue payload
type Token struct {
	Token     string    `json:"token"`
	Header    string    `json:"header"`
	ExpiresAt time.Time `json:"expiresAt"`
}
