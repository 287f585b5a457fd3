package country

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// DefaultURL is the public restcountries endpoint restricted to the fields we read.
const DefaultURL = "https://restcountries.com/v3.1/all?fields=name,cca2,idd,flag"

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
	IDD  struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
	Flag string `json:"flag"`
}

type httpProvider struct {
	client *http.Client
	url    string
}

// NewHTTPProvider fetches the directory from a restcountries-compatible URL.
func NewHTTPProvider(url string, timeout time.Duration) Provider {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpProvider{client: &http.Client{Timeout: timeout}, url: url}
}

func (p *httpProvider) FetchCountries(ctx context.Context) ([]Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnavailable.WithCause(fmt.Errorf("restcountries: status %d", resp.StatusCode))
	}

	var raw []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, ErrUnavailable.WithCause(fmt.Errorf("restcountries: decode: %w", err))
	}
	return normalize(raw), nil
}

// normalize keeps entries with a dialing root and at least one suffix. The
// dial code is the root joined with the first suffix.
func normalize(raw []restCountry) []Country {
	out := make([]Country, 0, len(raw))
	for _, c := range raw {
		if c.IDD.Root == "" || len(c.IDD.Suffixes) == 0 {
			continue
		}
		out = append(out, Country{
			Code:     c.CCA2,
			Name:     c.Name.Common,
			DialCode: c.IDD.Root + c.IDD.Suffixes[0],
			Flag:     c.Flag,
		})
	}
	sortByName(out)
	return out
}

func sortByName(cs []Country) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
