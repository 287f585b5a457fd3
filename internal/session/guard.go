package session

import (
	"context"

	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
)

// RedirectKey stores the path a logged-out client tried to open.
const RedirectKey = "redirectAfterLogin"

// Guard protects screens that need an authenticated session.
type Guard struct {
	Sessions *Controller
	Store    kv.Store
	Nav      navigation.Navigator
}

// Require reports whether the session may open path. When it may not, the
// path is remembered for after login and the client is sent to the login screen.
func (g *Guard) Require(ctx context.Context, path string) (bool, error) {
	if g.Sessions.Current().IsAuthenticated {
		return true, nil
	}
	if err := kv.SetJSON(ctx, g.Store, RedirectKey, path); err != nil {
		return false, err
	}
	g.Nav.GoTo(ctx, navigation.LoginPath)
	return false, nil
}

// TakeRedirect returns the remembered path and forgets it. Without one it
// returns the home path.
func TakeRedirect(ctx context.Context, store kv.Store) (string, error) {
	var path string
	ok, err := kv.GetJSON(ctx, store, RedirectKey, &path)
	if err != nil {
		return navigation.HomePath, err
	}
	if !ok || path == "" {
		return navigation.HomePath, nil
	}
	if err := store.Delete(ctx, RedirectKey); err != nil {
		return path, err
	}
	return path, nil
}

// LoggedOutMessage is the notice shown after logout.
const LoggedOutMessage = "Logged out successfully"

// SignOut logs the session out, tells the user, and returns them to the login screen.
func SignOut(ctx context.Context, c *Controller, sink notification.Sink, nav navigation.Navigator) error {
	if err := c.Logout(ctx); err != nil {
		return err
	}
	sink.Notify(ctx, notification.KindSuccess, LoggedOutMessage)
	nav.GoTo(ctx, navigation.LoginPath)
	return nil
}
