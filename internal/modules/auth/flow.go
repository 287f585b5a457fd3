package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/delordemm1/go-otp-chat/internal/validation"
)

// DefaultResendCooldown is the wait between two codes for the same flow.
const DefaultResendCooldown = 30 * time.Second

// Deps are the collaborators of a flow. Users, OTP, Session and Notify are
// required.
type Deps struct {
	Users   user.Service
	OTP     otp.Ledger
	Session *session.Controller
	// Redirects holds the redirect-after-login target. Defaults to an empty store.
	Redirects kv.Store
	Nav       navigation.Navigator
	Notify    notification.Sink
	Countries country.Provider
	Clock     clock.Scheduler
	Logger    *slog.Logger

	ResendCooldown time.Duration
	// ExposeCodes keeps the issued code on the state for development clients.
	ExposeCodes bool
}

// PhoneInput is the phone step form.
type PhoneInput struct {
	CountryCode string `json:"countryCode" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=10,max=15,digits"`
}

// OTPInput is the verification step form.
type OTPInput struct {
	Code string `json:"otp" validate:"required,len=6,digits"`
}

// ProfileInput is the signup profile form.
type ProfileInput struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50,letters"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50,letters"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// Flow runs one login or signup attempt. All methods are safe for concurrent
// use; at most one send, verify or profile request runs at a time.
type Flow struct {
	id   string
	deps Deps

	mu    sync.Mutex
	state State
	// epoch changes whenever the flow leaves a step, so responses that
	// arrive afterwards can be recognised and dropped.
	epoch       uint64
	cooldown    clock.Timer
	cooldownGen uint64
}

// NewFlow starts a flow in mode m at the phone step.
func NewFlow(id string, m Mode, deps Deps) *Flow {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Nav == nil {
		deps.Nav = navigation.Func(func(context.Context, string) {})
	}
	if deps.Redirects == nil {
		deps.Redirects = kv.NewMemory()
	}
	if deps.ResendCooldown <= 0 {
		deps.ResendCooldown = DefaultResendCooldown
	}
	deps.Logger = deps.Logger.With("flow_id", id, "mode", m)
	return &Flow{id: id, deps: deps, state: Initial(m)}
}

func (f *Flow) ID() string { return f.id }

// State returns the current snapshot.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LoadCountries fetches the dialing-code directory. A failure is reported to
// the user and yields an empty list; the phone step stays usable.
func (f *Flow) LoadCountries(ctx context.Context) []country.Country {
	if f.deps.Countries == nil {
		return []country.Country{}
	}
	list, err := f.deps.Countries.FetchCountries(ctx)
	if err != nil {
		f.deps.Logger.Warn("country directory unavailable", "error", err)
		f.deps.Notify.Notify(ctx, notification.KindError, country.LoadFailedMessage)
		return []country.Country{}
	}
	return list
}

// SubmitPhone checks the number against the credential store for the flow's
// mode, issues a code and moves to the otp step.
func (f *Flow) SubmitPhone(ctx context.Context, in PhoneInput) error {
	if err := validation.ValidateStruct(&in); err != nil {
		return err
	}
	phone := strings.TrimSpace(in.CountryCode) + in.PhoneNumber

	epoch, mode, err := f.begin(StepPhone, event{kind: evSendStarted})
	if err != nil {
		return err
	}
	log := f.deps.Logger.With("phone", phone)

	exists, err := f.deps.Users.Exists(ctx, phone)
	if err != nil {
		log.Error("user lookup failed", "error", err)
		return f.fail(ctx, epoch, err, msgSendFailed)
	}
	switch {
	case mode == ModeLogin && !exists:
		log.Warn("login rejected: unknown phone number")
		return f.fail(ctx, epoch, ErrUserNotFound, "")
	case mode == ModeSignup && exists:
		log.Warn("signup rejected: phone number already registered")
		return f.fail(ctx, epoch, ErrUserExists, "")
	}

	code, err := f.deps.OTP.Issue(ctx, phone)
	if err != nil {
		log.Error("otp issue failed", "error", err)
		return f.fail(ctx, epoch, err, msgSendFailed)
	}

	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.state = reduce(f.state, event{kind: evSent, phone: phone, countryCode: in.CountryCode, code: f.debug(code)})
	f.epoch++
	f.startCooldownLocked()
	f.mu.Unlock()

	log.Info("otp sent")
	f.deps.Notify.Notify(ctx, notification.KindSuccess, "OTP sent to "+phone)
	return nil
}

// SubmitOTP verifies the code. In login mode a valid code completes the flow;
// in signup mode it moves to the profile step. Once the pending number is
// verified, submitting again only moves forward.
func (f *Flow) SubmitOTP(ctx context.Context, in OTPInput) error {
	if err := validation.ValidateStruct(&in); err != nil {
		return err
	}

	f.mu.Lock()
	if f.state.Step == StepOTP && f.state.Verified && f.state.Mode == ModeSignup && !f.state.Loading.any() {
		f.state = reduce(f.state, event{kind: evVerified})
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	epoch, mode, err := f.begin(StepOTP, event{kind: evVerifyStarted})
	if err != nil {
		return err
	}
	phone := f.State().PhoneNumber
	log := f.deps.Logger.With("phone", phone)

	if err := f.deps.OTP.Verify(ctx, phone, in.Code); err != nil {
		log.Warn("otp rejected", "error", err)
		f.mu.Lock()
		if f.epoch != epoch {
			f.mu.Unlock()
			return ErrFlowCancelled
		}
		f.state = reduce(f.state, event{kind: evVerifyFailed, mustResend: otp.MustResend(err)})
		f.mu.Unlock()
		f.notifyError(ctx, err, msgVerifyFailed)
		return err
	}

	if mode == ModeSignup {
		f.mu.Lock()
		if f.epoch != epoch {
			f.mu.Unlock()
			return ErrFlowCancelled
		}
		f.state = reduce(f.state, event{kind: evVerified})
		f.mu.Unlock()
		log.Info("phone verified")
		return nil
	}

	u, err := f.deps.Users.FindByPhone(ctx, phone)
	if err != nil {
		f.mu.Lock()
		if f.epoch == epoch {
			f.state = reduce(f.state, event{kind: evVerified})
		}
		f.mu.Unlock()
		log.Error("login lookup failed", "error", err)
		f.notifyError(ctx, err, msgLoginFailed)
		return err
	}
	return f.complete(ctx, epoch, u, msgLoginSucceeded)
}

// Resend issues a fresh code for the pending number. While the cooldown is
// running it does nothing.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.state.Step != StepOTP {
		f.mu.Unlock()
		return ErrWrongStep
	}
	if f.state.ResendCooldown > 0 {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	epoch, _, err := f.begin(StepOTP, event{kind: evResendStarted})
	if err != nil {
		return err
	}
	phone := f.State().PhoneNumber

	code, err := f.deps.OTP.Reissue(ctx, phone)
	if err != nil {
		f.deps.Logger.Error("otp reissue failed", "phone", phone, "error", err)
		return f.fail(ctx, epoch, err, msgResendFailed)
	}

	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.state = reduce(f.state, event{kind: evResent, code: f.debug(code)})
	f.startCooldownLocked()
	f.mu.Unlock()

	f.deps.Logger.Info("otp resent", "phone", phone)
	f.deps.Notify.Notify(ctx, notification.KindSuccess, "OTP sent to "+phone)
	return nil
}

// Back returns to the previous step. Leaving the otp step forgets the pending
// number, stops the cooldown and drops any in-flight response.
func (f *Flow) Back(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.Step {
	case StepOTP:
		f.stopCooldownLocked()
	case StepProfile:
	default:
		return ErrWrongStep
	}
	f.epoch++
	f.state = reduce(f.state, event{kind: evBack})
	return nil
}

// SubmitProfile registers the verified number with the given profile and
// completes the signup.
func (f *Flow) SubmitProfile(ctx context.Context, in ProfileInput) error {
	if err := validation.ValidateStruct(&in); err != nil {
		return err
	}
	profile := Profile{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}

	epoch, _, err := f.begin(StepProfile, event{kind: evProfileStarted, profile: profile})
	if err != nil {
		return err
	}
	phone := f.State().PhoneNumber

	u, err := f.deps.Users.Create(ctx, user.CreateInput{
		PhoneNumber: phone,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       profile.Email,
	})
	if err != nil {
		f.deps.Logger.Warn("registration failed", "phone", phone, "error", err)
		return f.fail(ctx, epoch, err, msgRegisterFailed)
	}
	return f.complete(ctx, epoch, u, msgAccountCreated)
}

// Reset abandons the flow and returns it to the phone step.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCooldownLocked()
	f.epoch++
	f.state = reduce(f.state, event{kind: evReset})
}

// Close stops the flow's timers. The flow must not be used afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCooldownLocked()
	f.epoch++
}

// begin checks that the flow is at step with nothing in flight, applies the
// start event and returns the epoch the request belongs to.
func (f *Flow) begin(step Step, start event) (uint64, Mode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step != step {
		return 0, "", ErrWrongStep
	}
	if f.state.Loading.any() {
		return 0, "", ErrRequestInFlight
	}
	f.state = reduce(f.state, start)
	return f.epoch, f.state.Mode, nil
}

// fail clears the loading flags of the request, unless the flow has moved on,
// and reports err to the user.
func (f *Flow) fail(ctx context.Context, epoch uint64, err error, fallback string) error {
	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.state = reduce(f.state, event{kind: evRequestFailed})
	f.mu.Unlock()
	f.notifyError(ctx, err, fallback)
	return err
}

func (f *Flow) complete(ctx context.Context, epoch uint64, u *user.User, message string) error {
	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.stopCooldownLocked()
	f.epoch++
	f.state = reduce(f.state, event{kind: evCompleted, user: u})
	f.mu.Unlock()

	if err := f.deps.Session.Login(ctx, u); err != nil {
		f.deps.Logger.Error("session login failed", "user_id", u.ID, "error", err)
	}
	f.deps.Logger.Info("flow completed", "user_id", u.ID)
	f.deps.Notify.Notify(ctx, notification.KindSuccess, message)

	target, err := session.TakeRedirect(ctx, f.deps.Redirects)
	if err != nil {
		f.deps.Logger.Warn("redirect lookup failed", "error", err)
	}
	f.deps.Nav.GoTo(ctx, target)
	return nil
}

func (f *Flow) notifyError(ctx context.Context, err error, fallback string) {
	msg := fallback
	var dp httpx.DomainProblem
	if errors.As(err, &dp) && dp.ProblemStatus() < 500 {
		msg = dp.ProblemDetail()
	}
	if msg == "" {
		msg = err.Error()
	}
	f.deps.Notify.Notify(ctx, notification.KindError, msg)
}

func (f *Flow) debug(code string) string {
	if f.deps.ExposeCodes {
		return code
	}
	return ""
}

func (f *Flow) startCooldownLocked() {
	f.stopCooldownLocked()
	seconds := int(f.deps.ResendCooldown / time.Second)
	f.state = reduce(f.state, event{kind: evCooldownStarted, seconds: seconds})
	if seconds > 0 {
		f.scheduleTickLocked(f.cooldownGen)
	}
}

func (f *Flow) stopCooldownLocked() {
	f.cooldownGen++
	if f.cooldown != nil {
		f.cooldown.Stop()
		f.cooldown = nil
	}
}

func (f *Flow) scheduleTickLocked(gen uint64) {
	f.cooldown = f.deps.Clock.AfterFunc(time.Second, func() { f.tick(gen) })
}

func (f *Flow) tick(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.cooldownGen {
		return
	}
	f.state = reduce(f.state, event{kind: evTick})
	if f.state.ResendCooldown > 0 {
		f.scheduleTickLocked(gen)
		return
	}
	f.cooldown = nil
}
