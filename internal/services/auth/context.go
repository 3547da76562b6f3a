package auth

import (
	"context"
	"time"
)

type sessionContextKey string

const sessionKey sessionContextKey = "auth_session"

// Session is the authenticated caller of a request. Handlers read it from the
// request context and pass it on explicitly.
type Session struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok
}
