package note

import (
	"net/url"
	"regexp"
	"strings"
)

var noteIDPattern = regexp.MustCompile(`[a-z0-9]{24}`)

// CleanURL strips the query string and fragment, leaving the stable
// scheme://host/path form used as the canonical note link.
func CleanURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// StripTrackingParams drops the CDN tracking query parameters from a
// media URL.
func StripTrackingParams(rawURL string) string {
	return CleanURL(rawURL)
}

// TokenFromURL extracts the xsec_token query parameter carried by share
// links to private/unlisted content, empty when absent.
func TokenFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("xsec_token")
}

// AppendToken re-appends an access token to a canonical URL unless one
// is already embedded.
func AppendToken(canonicalURL, token string) string {
	if token == "" || strings.Contains(canonicalURL, "xsec_token=") {
		return canonicalURL
	}
	sep := "?"
	if strings.Contains(canonicalURL, "?") {
		sep = "&"
	}
	return canonicalURL + sep + "xsec_token=" + url.QueryEscape(token)
}

// IDFromURL pulls the 24-char note ID out of a canonical URL, empty
// when none is present.
func IDFromURL(rawURL string) string {
	return noteIDPattern.FindString(rawURL)
}
