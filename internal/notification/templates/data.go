package templates

// OTPCodeData holds variables for the otp.code scenario.
type OTPCodeData struct {
	AppName    string
	Code       string
	TTLMinutes int
}

// OTPCode is the typed handle for the otp.code template.
var OTPCode = Expect[OTPCodeData]("otp.code")

// WelcomeData holds variables for the user.welcome scenario.
type WelcomeData struct {
	AppName      string
	FirstName    string
	SupportEmail string
}

// Welcome is the typed handle for the user.welcome template.
var Welcome = Expect[WelcomeData]("user.welcome")
