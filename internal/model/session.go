package model

// Session is a live login. Token is the opaque value clients send as
// session_id; ExpiresAt is unix seconds.
type Session struct {
	Token     string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
	CreatedAt int64  `json:"created_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now int64) bool {
	return now >= s.ExpiresAt
}
