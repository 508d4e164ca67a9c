package model

import "time"

// Account kinds. This uses a tagged union pattern - the Type field determines
// which other fields are populated.
const (
	AccountOffline   = "offline"
	AccountMicrosoft = "microsoft"
)

// refreshLeeway is how long before the recorded expiry a token is already
// treated as expired, so a refresh happens before the game ever sees a
// rejected token.
const refreshLeeway = 300 * time.Second

// Account is a signed-in identity. Offline accounts carry only a username and
// a deterministic UUID; Microsoft accounts additionally carry the game-service
// access token, the OAuth refresh token, and the access token's expiry.
type Account struct {
	Type         string `json:"type"`
	Username     string `json:"username"`
	UUID         string `json:"uuid"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds
}

// GameToken returns the access token to hand to the game process.
// Offline accounts have no token; the launcher passes the literal "null",
// matching what the game expects for unauthenticated sessions.
func (a *Account) GameToken() string {
	if a.Type == AccountOffline {
		return "null"
	}
	return a.AccessToken
}

// NeedsRefresh reports whether the access token should be refreshed before
// use: true once fewer than 300 seconds remain before expiry. Offline
// accounts never need a refresh.
func (a *Account) NeedsRefresh(now time.Time) bool {
	if a.Type != AccountMicrosoft {
		return false
	}
	return now.Add(refreshLeeway).Unix() >= a.ExpiresAt
}
