package domain

import "net/url"

// WithURLUTM moves utm_* query parameters out of r.URL. Values already set on
// r take precedence over the ones found in the URL.
func (r CreateLinkRequest) WithURLUTM() CreateLinkRequest {
	parsed, err := url.Parse(r.URL)
	if err != nil || parsed.RawQuery == "" {
		return r
	}

	query := parsed.Query()
	fields := []struct {
		param string
		dst   *string
	}{
		{"utm_source", &r.UTMSource},
		{"utm_medium", &r.UTMMedium},
		{"utm_campaign", &r.UTMCampaign},
		{"utm_term", &r.UTMTerm},
		{"utm_content", &r.UTMContent},
	}

	found := false
	for _, field := range fields {
		if !query.Has(field.param) {
			continue
		}
		found = true
		if *field.dst == "" {
			*field.dst = query.Get(field.param)
		}
		query.Del(field.param)
	}
	if !found {
		return r
	}

	parsed.RawQuery = query.Encode()
	r.URL = parsed.String()
	return r
}
