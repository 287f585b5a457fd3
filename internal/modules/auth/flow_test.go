package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/delordemm1/go-otp-chat/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	countryCode = "+1"
	localNumber = "5551234567"
	fullPhone   = countryCode + localNumber
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

type fixture struct {
	clock   *clock.Fake
	users   user.Service
	ledger  otp.Ledger
	session *session.Controller
	store   kv.Store
	notices *notification.Buffer
	nav     *navigation.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := kv.NewMemory()
	ctrl, err := session.NewController(context.Background(), store, session.StoreKey, discard())
	require.NoError(t, err)
	return &fixture{
		clock:   fc,
		users:   user.NewService(&user.Config{Repo: user.NewMemoryRepository(), Logger: discard(), Clock: fc}),
		ledger:  otp.NewMemoryLedger(otp.Options{Clock: fc, Generate: sequence("111111", "222222", "333333")}),
		session: ctrl,
		store:   store,
		notices: &notification.Buffer{},
		nav:     &navigation.Recorder{},
	}
}

func (fx *fixture) deps() Deps {
	return Deps{
		Users:       fx.users,
		OTP:         fx.ledger,
		Session:     fx.session,
		Redirects:   fx.store,
		Nav:         fx.nav,
		Notify:      fx.notices,
		Clock:       fx.clock,
		Logger:      discard(),
		ExposeCodes: true,
	}
}

func (fx *fixture) flow(m Mode) *Flow {
	return NewFlow("flow-1", m, fx.deps())
}

func (fx *fixture) register(t *testing.T) *user.User {
	t.Helper()
	u, err := fx.users.Create(context.Background(), user.CreateInput{PhoneNumber: fullPhone, FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	return u
}

func phoneInput() PhoneInput { return PhoneInput{CountryCode: countryCode, PhoneNumber: localNumber} }

func notice(kind notification.Kind, msg string) notification.Notice {
	return notification.Notice{Kind: kind, Message: msg}
}

func TestSubmitPhone_Validation(t *testing.T) {
	fx := newFixture(t)
	f := fx.flow(ModeLogin)
	ctx := context.Background()

	cases := map[string]PhoneInput{
		"missing country": {PhoneNumber: localNumber},
		"too short":       {CountryCode: countryCode, PhoneNumber: "555123"},
		"too long":        {CountryCode: countryCode, PhoneNumber: "5551234567890123"},
		"not digits":      {CountryCode: countryCode, PhoneNumber: "555-123-4567"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			err := f.SubmitPhone(ctx, in)
			var verr *validation.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, StepPhone, f.State().Step)
		})
	}
	assert.Empty(t, fx.notices.Drain(), "validation errors stay in the form")
	require.ErrorIs(t, fx.ledger.Verify(ctx, fullPhone, "111111"), otp.ErrNotFound, "no code was issued")
}

func TestSubmitPhone_LoginRequiresAccount(t *testing.T) {
	fx := newFixture(t)
	f := fx.flow(ModeLogin)

	err := f.SubmitPhone(context.Background(), phoneInput())
	require.ErrorIs(t, err, ErrUserNotFound)

	s := f.State()
	assert.Equal(t, StepPhone, s.Step)
	assert.False(t, s.Loading.Send)
	assert.Equal(t, []notification.Notice{notice(notification.KindError, "No account found with this phone number")}, fx.notices.Drain())
}

func TestSubmitPhone_SignupRejectsExistingAccount(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	f := fx.flow(ModeSignup)

	err := f.SubmitPhone(context.Background(), phoneInput())
	require.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, StepPhone, f.State().Step)
	assert.Equal(t, []notification.Notice{notice(notification.KindError, "Account already exists with this phone number")}, fx.notices.Drain())
}

func TestLoginFlow(t *testing.T) {
	fx := newFixture(t)
	u := fx.register(t)
	f := fx.flow(ModeLogin)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	s := f.State()
	assert.Equal(t, StepOTP, s.Step)
	assert.Equal(t, fullPhone, s.PhoneNumber)
	assert.Equal(t, countryCode, s.CountryCode)
	assert.Equal(t, 30, s.ResendCooldown)
	assert.Equal(t, "111111", s.DebugCode)
	assert.Equal(t, []notification.Notice{notice(notification.KindSuccess, "OTP sent to "+fullPhone)}, fx.notices.Drain())

	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}))
	s = f.State()
	assert.Equal(t, StepComplete, s.Step)
	require.NotNil(t, s.User)
	assert.Equal(t, u.ID, s.User.ID)

	cur := fx.session.Current()
	assert.True(t, cur.IsAuthenticated)
	assert.Equal(t, u.ID, cur.User.ID)
	assert.Equal(t, []notification.Notice{notice(notification.KindSuccess, "Login successful!")}, fx.notices.Drain())
	assert.Equal(t, navigation.HomePath, fx.nav.Last())
	assert.Zero(t, fx.clock.Pending(), "completion stops the cooldown")
}

func TestLoginFlow_FollowsRedirectOnce(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	ctx := context.Background()

	guard := &session.Guard{Sessions: fx.session, Store: fx.store, Nav: fx.nav}
	ok, err := guard.Require(ctx, "/chat/4")
	require.NoError(t, err)
	require.False(t, ok)

	f := fx.flow(ModeLogin)
	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}))
	assert.Equal(t, []string{navigation.LoginPath, "/chat/4"}, fx.nav.Paths())

	path, err := session.TakeRedirect(ctx, fx.store)
	require.NoError(t, err)
	assert.Equal(t, navigation.HomePath, path)
}

func TestSignupFlow(t *testing.T) {
	fx := newFixture(t)
	f := fx.flow(ModeSignup)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	fx.notices.Drain()

	err := f.SubmitOTP(ctx, OTPInput{Code: "999999"})
	require.ErrorIs(t, err, otp.ErrMismatch)
	assert.Equal(t, StepOTP, f.State().Step)
	assert.False(t, f.State().ResendRequired)
	assert.Equal(t, []notification.Notice{notice(notification.KindError, "Invalid OTP. Please try again.")}, fx.notices.Drain())

	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}))
	assert.Equal(t, StepProfile, f.State().Step)
	assert.Empty(t, fx.notices.Drain())

	err = f.SubmitProfile(ctx, ProfileInput{FirstName: "A", LastName: "Lovelace"})
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "firstName")

	require.NoError(t, f.Back(ctx))
	assert.Equal(t, StepOTP, f.State().Step)
	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}), "a verified number moves forward without a new check")
	assert.Equal(t, StepProfile, f.State().Step)

	require.NoError(t, f.SubmitProfile(ctx, ProfileInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}))
	s := f.State()
	assert.Equal(t, StepComplete, s.Step)
	require.NotNil(t, s.User)
	assert.Equal(t, fullPhone, s.User.PhoneNumber)
	require.NotNil(t, s.User.Email)
	assert.Equal(t, "ada@example.com", *s.User.Email)

	exists, err := fx.users.Exists(ctx, fullPhone)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, fx.session.Current().IsAuthenticated)
	assert.Equal(t, []notification.Notice{notice(notification.KindSuccess, "Account created successfully!")}, fx.notices.Drain())
	assert.Equal(t, navigation.HomePath, fx.nav.Last())
}

func TestSignupFlow_ProfileKeptAcrossBack(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	f := fx.flow(ModeSignup)
	f.state = State{Mode: ModeSignup, Step: StepProfile, PhoneNumber: fullPhone, Verified: true}

	err := f.SubmitProfile(context.Background(), ProfileInput{FirstName: "Grace", LastName: "Hopper"})
	require.ErrorIs(t, err, user.ErrDuplicateUser)

	s := f.State()
	assert.Equal(t, StepProfile, s.Step)
	assert.False(t, s.Loading.Profile)
	assert.Equal(t, Profile{FirstName: "Grace", LastName: "Hopper"}, s.Profile)

	require.NoError(t, f.Back(context.Background()))
	assert.Equal(t, "Grace", f.State().Profile.FirstName)
}

func TestResend_Cooldown(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	f := fx.flow(ModeLogin)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	fx.notices.Drain()

	fx.clock.Advance(10 * time.Second)
	assert.Equal(t, 20, f.State().ResendCooldown)

	require.NoError(t, f.Resend(ctx))
	assert.Equal(t, "111111", f.State().DebugCode, "no new code during the cooldown")
	assert.Empty(t, fx.notices.Drain())

	fx.clock.Advance(20 * time.Second)
	assert.Equal(t, 0, f.State().ResendCooldown)
	assert.Zero(t, fx.clock.Pending())

	require.NoError(t, f.Resend(ctx))
	s := f.State()
	assert.Equal(t, "222222", s.DebugCode)
	assert.Equal(t, 30, s.ResendCooldown)
	assert.Equal(t, []notification.Notice{notice(notification.KindSuccess, "OTP sent to "+fullPhone)}, fx.notices.Drain())

	require.ErrorIs(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}), otp.ErrMismatch, "the old code is replaced")
	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "222222"}))
	assert.Equal(t, StepComplete, f.State().Step)
}

func TestResend_WrongStep(t *testing.T) {
	fx := newFixture(t)
	require.ErrorIs(t, fx.flow(ModeLogin).Resend(context.Background()), ErrWrongStep)
}

func TestExpiredCodeRequiresResend(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	f := fx.flow(ModeLogin)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	fx.notices.Drain()
	fx.clock.Advance(5*time.Minute + time.Second)

	require.ErrorIs(t, f.SubmitOTP(ctx, OTPInput{Code: "111111"}), otp.ErrExpired)
	s := f.State()
	assert.Equal(t, StepOTP, s.Step)
	assert.True(t, s.ResendRequired)
	assert.Equal(t, []notification.Notice{notice(notification.KindError, "OTP has expired. Please request a new one.")}, fx.notices.Drain())

	require.NoError(t, f.Resend(ctx))
	assert.False(t, f.State().ResendRequired)
	require.NoError(t, f.SubmitOTP(ctx, OTPInput{Code: "222222"}))
}

func TestBack_FromOTPClearsPendingNumber(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	f := fx.flow(ModeLogin)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	require.NoError(t, f.Back(ctx))

	s := f.State()
	assert.Equal(t, StepPhone, s.Step)
	assert.Empty(t, s.PhoneNumber)
	assert.Empty(t, s.CountryCode)
	assert.Zero(t, s.ResendCooldown)
	assert.Zero(t, fx.clock.Pending(), "leaving the step cancels the cooldown")

	require.ErrorIs(t, f.Back(ctx), ErrWrongStep)
}

func TestReset(t *testing.T) {
	fx := newFixture(t)
	f := fx.flow(ModeSignup)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	f.Reset()

	assert.Equal(t, Initial(ModeSignup), f.State())
	assert.Zero(t, fx.clock.Pending())
}

// gatedUsers blocks Exists until released.
type gatedUsers struct {
	user.Service
	entered chan struct{}
	release chan struct{}
}

func (g *gatedUsers) Exists(ctx context.Context, phone string) (bool, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Service.Exists(ctx, phone)
}

// gatedLedger blocks Verify until released.
type gatedLedger struct {
	otp.Ledger
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLedger) Verify(ctx context.Context, phone, code string) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Ledger.Verify(ctx, phone, code)
}

func TestSubmitPhone_OneRequestAtATime(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	gated := &gatedUsers{Service: fx.users, entered: make(chan struct{}), release: make(chan struct{})}
	deps := fx.deps()
	deps.Users = gated
	f := NewFlow("flow-1", ModeLogin, deps)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.SubmitPhone(ctx, phoneInput()) }()
	<-gated.entered

	assert.True(t, f.State().Loading.Send)
	require.ErrorIs(t, f.SubmitPhone(ctx, phoneInput()), ErrRequestInFlight)

	close(gated.release)
	require.NoError(t, <-done)
	assert.Equal(t, StepOTP, f.State().Step)
	assert.False(t, f.State().Loading.Send)
}

func TestBack_DiscardsLateVerifyResponse(t *testing.T) {
	fx := newFixture(t)
	fx.register(t)
	gated := &gatedLedger{Ledger: fx.ledger, entered: make(chan struct{}), release: make(chan struct{})}
	deps := fx.deps()
	deps.OTP = gated
	f := NewFlow("flow-1", ModeLogin, deps)
	ctx := context.Background()

	require.NoError(t, f.SubmitPhone(ctx, phoneInput()))
	fx.notices.Drain()

	done := make(chan error, 1)
	go func() { done <- f.SubmitOTP(ctx, OTPInput{Code: "111111"}) }()
	<-gated.entered

	require.NoError(t, f.Back(ctx))
	close(gated.release)

	require.ErrorIs(t, <-done, ErrFlowCancelled)
	assert.Equal(t, StepPhone, f.State().Step)
	assert.False(t, fx.session.Current().IsAuthenticated)
	assert.Empty(t, fx.notices.Drain())
}

type failingCountries struct{}

func (failingCountries) FetchCountries(context.Context) ([]country.Country, error) {
	return nil, errors.New("dial tcp: i/o timeout")
}

func TestLoadCountries(t *testing.T) {
	fx := newFixture(t)

	deps := fx.deps()
	deps.Countries = country.DefaultStatic
	list := NewFlow("a", ModeLogin, deps).LoadCountries(context.Background())
	assert.NotEmpty(t, list)
	assert.Empty(t, fx.notices.Drain())

	deps.Countries = failingCountries{}
	f := NewFlow("b", ModeLogin, deps)
	list = f.LoadCountries(context.Background())
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Equal(t, []notification.Notice{notice(notification.KindError, country.LoadFailedMessage)}, fx.notices.Drain())
	assert.Equal(t, StepPhone, f.State().Step)
}
