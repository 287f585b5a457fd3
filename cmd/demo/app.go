package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/auth"
	"github.com/delordemm1/go-otp-chat/internal/modules/chat"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/google/uuid"
)

const chatPathPrefix = "/chat/"

var errNoFlow = errors.New("no login or signup in progress, type login or signup first")
var errNoRoom = errors.New("no room open, type open <roomId> first")

// printerSink prints notices as they arrive and counts them, so commands can
// tell whether a failure was already shown to the user.
type printerSink struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

func (s *printerSink) Notify(_ context.Context, kind notification.Kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	fmt.Fprintf(s.w, "[%s] %s\n", kind, message)
}

func (s *printerSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// appDeps holds the services the demo runs in-process.
type appDeps struct {
	Out       io.Writer
	Logger    *slog.Logger
	Store     kv.Store
	Users     user.Service
	OTP       otp.Ledger
	Countries country.Provider
	History   chat.HistorySource
	Clock     clock.Scheduler
	Width     int
	Height    int
}

// app is the terminal client: one session, at most one flow and one open room.
type app struct {
	deps     appDeps
	sink     *printerSink
	session  *session.Controller
	guard    *session.Guard
	rooms    *chat.Directories
	viewport *chat.LineViewport

	mu       sync.Mutex
	location string
	flow     *auth.Flow
	chat     *chat.Controller
}

func newApp(ctx context.Context, deps appDeps) (*app, error) {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	sess, err := session.NewController(ctx, deps.Store, session.StoreKey, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	a := &app{
		deps:     deps,
		sink:     &printerSink{w: deps.Out},
		session:  sess,
		rooms:    chat.NewDirectories(deps.Clock),
		viewport: chat.NewLineViewport(deps.Width, deps.Height),
		location: navigation.HomePath,
	}
	a.guard = &session.Guard{Sessions: sess, Store: deps.Store, Nav: navigation.Func(a.goTo)}
	if !sess.Current().IsAuthenticated {
		a.location = navigation.LoginPath
	}
	return a, nil
}

func (a *app) goTo(_ context.Context, path string) {
	a.mu.Lock()
	a.location = path
	a.mu.Unlock()
	fmt.Fprintf(a.deps.Out, "→ %s\n", path)
}

func (a *app) isLoggedIn() bool { return a.session.Current().IsAuthenticated }

// status is the prompt suffix: where the client is and who is logged in.
func (a *app) status() string {
	a.mu.Lock()
	loc := a.location
	f := a.flow
	a.mu.Unlock()

	who := "guest"
	if u := a.session.Current().User; u != nil {
		who = u.DisplayName()
	}
	if f != nil && loc == navigation.LoginPath {
		st := f.State()
		s := fmt.Sprintf("%s %s/%s", who, st.Mode, st.Step)
		if st.ResendCooldown > 0 {
			s += fmt.Sprintf(" (resend in %ds)", st.ResendCooldown)
		}
		return s
	}
	return who + " " + loc
}

// reported turns a flow error into nil when the flow already showed it.
func (a *app) reported(before int, err error) error {
	if err != nil && a.sink.count() > before {
		return nil
	}
	return err
}

func (a *app) currentFlow() (*auth.Flow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow == nil {
		return nil, errNoFlow
	}
	return a.flow, nil
}

// Start begins a login or signup flow, replacing any unfinished one.
func (a *app) Start(ctx context.Context, mode string) error {
	m := auth.Mode(mode)
	if !m.Valid() {
		return auth.ErrInvalidMode
	}
	f := auth.NewFlow(uuid.NewString(), m, auth.Deps{
		Users:       a.deps.Users,
		OTP:         a.deps.OTP,
		Session:     a.session,
		Redirects:   a.deps.Store,
		Nav:         navigation.Func(a.goTo),
		Notify:      a.sink,
		Countries:   a.deps.Countries,
		Clock:       a.deps.Clock,
		Logger:      a.deps.Logger,
		ExposeCodes: true,
	})

	a.mu.Lock()
	if a.flow != nil {
		a.flow.Close()
	}
	a.flow = f
	a.location = navigation.LoginPath
	a.mu.Unlock()

	countries := f.LoadCountries(ctx)
	if len(countries) > 0 {
		sample := make([]string, 0, 5)
		for _, c := range countries[:min(5, len(countries))] {
			sample = append(sample, fmt.Sprintf("%s %s %s", c.Flag, c.Name, c.DialCode))
		}
		fmt.Fprintf(a.deps.Out, "%d countries available, e.g. %s\n", len(countries), strings.Join(sample, ", "))
	}
	fmt.Fprintf(a.deps.Out, "Enter your number: phone <countryCode> <number>\n")
	return nil
}

func (a *app) Phone(ctx context.Context, countryCode, number string) error {
	f, err := a.currentFlow()
	if err != nil {
		return err
	}
	before := a.sink.count()
	if err := f.SubmitPhone(ctx, auth.PhoneInput{CountryCode: countryCode, PhoneNumber: number}); err != nil {
		return a.reported(before, err)
	}
	if code := f.State().DebugCode; code != "" {
		fmt.Fprintf(a.deps.Out, "(dev) your code is %s\n", code)
	}
	return nil
}

func (a *app) OTP(ctx context.Context, code string) error {
	f, err := a.currentFlow()
	if err != nil {
		return err
	}
	before := a.sink.count()
	if err := f.SubmitOTP(ctx, auth.OTPInput{Code: code}); err != nil {
		if f.State().ResendRequired {
			fmt.Fprintln(a.deps.Out, "Request a new code with: resend")
		}
		return a.reported(before, err)
	}
	return a.afterStep(ctx, f)
}

func (a *app) Resend(ctx context.Context) error {
	f, err := a.currentFlow()
	if err != nil {
		return err
	}
	st := f.State()
	if st.Step == auth.StepOTP && st.ResendCooldown > 0 {
		fmt.Fprintf(a.deps.Out, "You can resend in %ds\n", st.ResendCooldown)
		return nil
	}
	before := a.sink.count()
	if err := f.Resend(ctx); err != nil {
		return a.reported(before, err)
	}
	if code := f.State().DebugCode; code != "" {
		fmt.Fprintf(a.deps.Out, "(dev) your code is %s\n", code)
	}
	return nil
}

func (a *app) Back(ctx context.Context) error {
	f, err := a.currentFlow()
	if err != nil {
		return err
	}
	if err := f.Back(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.deps.Out, "Back to the %s step\n", f.State().Step)
	return nil
}

func (a *app) Profile(ctx context.Context, first, last, email string) error {
	f, err := a.currentFlow()
	if err != nil {
		return err
	}
	before := a.sink.count()
	if err := f.SubmitProfile(ctx, auth.ProfileInput{FirstName: first, LastName: last, Email: email}); err != nil {
		return a.reported(before, err)
	}
	return a.afterStep(ctx, f)
}

// afterStep reports the flow's new step and, once it is complete, opens the
// room the user was sent to.
func (a *app) afterStep(ctx context.Context, f *auth.Flow) error {
	st := f.State()
	switch st.Step {
	case auth.StepProfile:
		fmt.Fprintln(a.deps.Out, "Phone verified. Finish signing up: profile <first> <last> [email]")
		return nil
	case auth.StepComplete:
	default:
		return nil
	}

	a.mu.Lock()
	a.flow = nil
	loc := a.location
	a.mu.Unlock()
	f.Close()

	if id, ok := strings.CutPrefix(loc, chatPathPrefix); ok {
		return a.Open(ctx, id)
	}
	return nil
}

func (a *app) Rooms(ctx context.Context, search string) error {
	ok, err := a.guard.Require(ctx, navigation.HomePath)
	if err != nil || !ok {
		return err
	}
	u := a.session.Current().User
	a.goTo(ctx, navigation.HomePath)
	rooms := a.rooms.For(u.ID).List(search)
	if len(rooms) == 0 {
		fmt.Fprintln(a.deps.Out, "No rooms found")
		return nil
	}
	for _, r := range rooms {
		mine := ""
		if r.CreatedBy == u.ID {
			mine = " (yours)"
		}
		fmt.Fprintf(a.deps.Out, "  %-4s %-12s %3d members  %s%s\n", r.ID, r.Name, r.MemberCount, r.Description, mine)
	}
	return nil
}

// Open shows a room's newest page. Logged-out users are sent to log in and
// brought back here afterwards.
func (a *app) Open(ctx context.Context, roomID string) error {
	ok, err := a.guard.Require(ctx, chatPathPrefix+roomID)
	if err != nil || !ok {
		return err
	}
	u := a.session.Current().User
	room, err := a.rooms.For(u.ID).Get(roomID)
	if err != nil {
		return err
	}

	c := chat.NewController(chat.ControllerConfig{
		History:  a.deps.History,
		Viewport: a.viewport,
		Self:     chat.Sender{ID: u.ID, DisplayName: u.DisplayName()},
		Clock:    a.deps.Clock,
		Logger:   a.deps.Logger,
	})
	a.mu.Lock()
	if a.chat != nil {
		a.chat.Close()
	}
	a.chat = c
	a.mu.Unlock()
	a.goTo(ctx, chatPathPrefix+roomID)

	fmt.Fprintf(a.deps.Out, "# %s: %s\n", room.Name, room.Description)
	if err := c.LoadInitial(ctx, roomID); err != nil {
		return err
	}
	return a.View(ctx)
}

func (a *app) currentChat() (*chat.Controller, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chat == nil {
		return nil, errNoRoom
	}
	return a.chat, nil
}

func (a *app) Older(ctx context.Context) error {
	c, err := a.currentChat()
	if err != nil {
		return err
	}
	if !c.HasMore() {
		fmt.Fprintln(a.deps.Out, "No older messages")
		return nil
	}
	if err := c.LoadOlder(ctx); err != nil {
		return err
	}
	return a.View(ctx)
}

func (a *app) Send(ctx context.Context, text string) error {
	c, err := a.currentChat()
	if err != nil {
		return err
	}
	if _, err := c.Send(ctx, text, nil); err != nil {
		return err
	}
	return a.View(ctx)
}

func (a *app) Scroll(ctx context.Context, offset int) error {
	c, err := a.currentChat()
	if err != nil {
		return err
	}
	if err := c.OnScroll(ctx, offset); err != nil {
		return err
	}
	return a.View(ctx)
}

// View prints the visible part of the open room.
func (a *app) View(_ context.Context) error {
	c, err := a.currentChat()
	if err != nil {
		return err
	}
	for _, line := range a.viewport.Visible() {
		fmt.Fprintln(a.deps.Out, line)
	}
	m := a.viewport.Metrics()
	more := ""
	if c.HasMore() {
		more = ", older messages available"
	}
	fmt.Fprintf(a.deps.Out, "-- %d messages, line %d of %d%s --\n", len(c.Messages()), m.Offset+1, m.Extent, more)
	return nil
}

func (a *app) WhoAmI(_ context.Context) error {
	s := a.session.Current()
	if !s.IsAuthenticated || s.User == nil {
		fmt.Fprintln(a.deps.Out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.deps.Out, "%s (%s)\n", s.User.DisplayName(), s.User.PhoneNumber)
	return nil
}

func (a *app) Logout(ctx context.Context) error {
	a.mu.Lock()
	if a.chat != nil {
		a.chat.Close()
		a.chat = nil
	}
	a.mu.Unlock()
	return session.SignOut(ctx, a.session, a.sink, navigation.Func(a.goTo))
}

// Close stops any pending timers.
func (a *app) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow != nil {
		a.flow.Close()
	}
	if a.chat != nil {
		a.chat.Close()
	}
}
