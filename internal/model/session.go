package model

// TokenBundle is the per-session upstream credential. ExpiresAt is absolute,
// seconds since epoch.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Session ties a signed-in browser session to a user and their upstream
// credential. It lives in redis, not in the calendar cache.
type Session struct {
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Token TokenBundle `json:"token"`
}
