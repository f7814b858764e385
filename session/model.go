package session

// Session is one authenticated device. Timestamps are Unix seconds.
type Session struct {
	ID        string
	UserID    string
	Device    string
	IP        string
	UserAgent string

	CreatedAt  int64
	LastActive int64
	ExpiresAt  int64
}

// Expired reports whether the session is past its expiry at nowUnix.
func (s *Session) Expired(nowUnix int64) bool {
	return s.ExpiresAt <= nowUnix
}
