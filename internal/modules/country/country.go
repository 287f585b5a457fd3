// Package country provides the dialing-code directory used by the phone step.
package country

import (
	"context"
	"net/http"

	"github.com/delordemm1/go-otp-chat/internal/domainerr"
)

// Country is a directory entry.
type Country struct {
	Code     string `json:"code" doc:"ISO 3166-1 alpha-2 code"`
	Name     string `json:"name"`
	DialCode string `json:"dialCode" example:"+44"`
	Flag     string `json:"flag,omitempty"`
}

// Provider lists countries sorted by name. Fetching may fail; callers are
// expected to degrade to an empty list.
type Provider interface {
	FetchCountries(ctx context.Context) ([]Country, error)
}

// LoadFailedMessage is shown to the user when the directory cannot be loaded.
const LoadFailedMessage = "Failed to load countries. Please refresh the page."

var ErrUnavailable = domainerr.New("country", "ErrCountriesUnavailable", http.StatusServiceUnavailable,
	LoadFailedMessage)
