// Package auth implements the phone/OTP login and signup flow: a
// three-step state machine (phone, otp, profile) with a resend cooldown,
// in-flight guards and cancellation of stale responses.
package auth

import "github.com/delordemm1/go-otp-chat/internal/modules/user"

// Mode selects which flow is being run.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

func (m Mode) Valid() bool { return m == ModeLogin || m == ModeSignup }

// Step is the current screen of a flow.
type Step string

const (
	StepPhone    Step = "phone"
	StepOTP      Step = "otp"
	StepProfile  Step = "profile"
	StepComplete Step = "complete"
)

// Loading tracks the in-flight request of each step.
type Loading struct {
	Send    bool `json:"send"`
	Verify  bool `json:"verify"`
	Profile bool `json:"profile"`
}

func (l Loading) any() bool { return l.Send || l.Verify || l.Profile }

// Profile is the signup form. It survives going back from the profile step.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// State is an immutable snapshot of a flow. Only reduce produces new states.
type State struct {
	Mode           Mode
	Step           Step
	PhoneNumber    string
	CountryCode    string
	ResendCooldown int
	Loading        Loading
	// Verified is set once the pending number's code has been consumed.
	Verified       bool
	// ResendRequired is set when the last verification failed with an
	// expired or missing code.
	ResendRequired bool
	Profile        Profile
	// DebugCode is the last issued code, kept only when codes are exposed.
	DebugCode      string
	User           *user.User
}

// Initial returns the first state of a flow in mode m.
func Initial(m Mode) State {
	return State{Mode: m, Step: StepPhone}
}

type eventKind int

const (
	evSendStarted eventKind = iota
	evSent
	evVerifyStarted
	evVerified
	evVerifyFailed
	evResendStarted
	evResent
	evRequestFailed
	evCooldownStarted
	evTick
	evBack
	evProfileStarted
	evCompleted
	evReset
)

type event struct {
	kind        eventKind
	phone       string
	countryCode string
	code        string
	seconds     int
	mustResend  bool
	profile     Profile
	user        *user.User
}

// reduce returns the state that follows s after e. It never mutates s.
func reduce(s State, e event) State {
	switch e.kind {
	case evSendStarted:
		s.Loading.Send = true

	case evSent:
		s.Loading.Send = false
		s.Step = StepOTP
		s.PhoneNumber = e.phone
		s.CountryCode = e.countryCode
		s.Verified = false
		s.ResendRequired = false
		s.DebugCode = e.code

	case evVerifyStarted:
		s.Loading.Verify = true

	case evVerified:
		s.Loading.Verify = false
		s.Verified = true
		s.ResendRequired = false
		s.DebugCode = ""
		if s.Mode == ModeSignup {
			s.Step = StepProfile
		}

	case evVerifyFailed:
		s.Loading.Verify = false
		s.ResendRequired = e.mustResend

	case evResendStarted:
		s.Loading.Send = true

	case evResent:
		s.Loading.Send = false
		s.Verified = false
		s.ResendRequired = false
		s.DebugCode = e.code

	case evRequestFailed:
		s.Loading = Loading{}

	case evCooldownStarted:
		s.ResendCooldown = e.seconds

	case evTick:
		if s.ResendCooldown > 0 {
			s.ResendCooldown--
		}

	case evBack:
		s.Loading = Loading{}
		switch s.Step {
		case StepOTP:
			s.Step = StepPhone
			s.PhoneNumber = ""
			s.CountryCode = ""
			s.ResendCooldown = 0
			s.Verified = false
			s.ResendRequired = false
			s.DebugCode = ""
		case StepProfile:
			s.Step = StepOTP
		}

	case evProfileStarted:
		s.Loading.Profile = true
		s.Profile = e.profile

	case evCompleted:
		s.Loading = Loading{}
		s.Step = StepComplete
		s.ResendCooldown = 0
		s.DebugCode = ""
		s.User = e.user

	case evReset:
		return Initial(s.Mode)
	}
	return s
}
