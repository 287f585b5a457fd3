package country

import "context"

// Static serves a fixed list, for offline development and as a fallback.
type Static []Country

// DefaultStatic is a small offline directory.
var DefaultStatic = Static{
	{Code: "AU", Name: "Australia", DialCode: "+61", Flag: "🇦🇺"},
	{Code: "BR", Name: "Brazil", DialCode: "+55", Flag: "🇧🇷"},
	{Code: "CA", Name: "Canada", DialCode: "+1", Flag: "🇨🇦"},
	{Code: "DE", Name: "Germany", DialCode: "+49", Flag: "🇩🇪"},
	{Code: "IN", Name: "India", DialCode: "+91", Flag: "🇮🇳"},
	{Code: "NG", Name: "Nigeria", DialCode: "+234", Flag: "🇳🇬"},
	{Code: "GB", Name: "United Kingdom", DialCode: "+44", Flag: "🇬🇧"},
	{Code: "US", Name: "United States", DialCode: "+1", Flag: "🇺🇸"},
}

func (s Static) FetchCountries(context.Context) ([]Country, error) {
	out := make([]Country, len(s))
	copy(out, s)
	sortByName(out)
	return out, nil
}
