package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-chat/internal/contextx"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/session"
)

// SessionChecker reports whether a server-side session is still logged in.
type SessionChecker interface {
	Open(ctx context.Context, sessionID string) (*session.Controller, error)
}

// JWTAuthHuma validates the bearer token, confirms its session has not been
// logged out, and injects the user and session ids for downstream handlers.
// Operations without a "bearer" security requirement are passed through.
// Failures are written as problem+json with code ErrUnauthorized.
func JWTAuthHuma(tokens *session.Tokens, sessions SessionChecker, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresBearer(ctx.Operation()) {
			next(ctx)
			return
		}

		unauthorized := func(detail string) {
			p := httpx.UnauthorizedProblem(ctx.Context(), detail)
			ctx.SetHeader("Content-Type", "application/problem+json")
			ctx.SetStatus(p.GetStatus())
			_ = json.NewEncoder(ctx.BodyWriter()).Encode(p)
		}

		header := ctx.Header("Authorization")
		if header == "" {
			unauthorized("missing authorization header")
			return
		}
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			unauthorized("invalid authorization header format")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			logger.Warn("invalid jwt token", "error", err)
			unauthorized("invalid or expired token")
			return
		}

		c, err := sessions.Open(ctx.Context(), claims.SessionID)
		if err != nil {
			logger.Error("session lookup failed", "session_id", claims.SessionID, "error", err)
			unauthorized("session unavailable")
			return
		}
		cur := c.Current()
		if !cur.IsAuthenticated || cur.User.ID != claims.Subject {
			unauthorized("session has ended")
			return
		}

		ctx = huma.WithValue(ctx, contextx.UserIDKey, claims.Subject)
		ctx = huma.WithValue(ctx, contextx.SessionIDKey, claims.SessionID)
		next(ctx)
	}
}

func requiresBearer(op *huma.Operation) bool {
	if op == nil {
		return false
	}
	for _, req := range op.Security {
		if _, ok := req["bearer"]; ok {
			return true
		}
	}
	return false
}
