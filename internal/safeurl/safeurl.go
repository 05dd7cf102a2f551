package safeurl

import "net/url"

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Applied to decrypted playout URLs before they are handed to a player, to
// reject file://, ftp://, and other schemes a corrupted decrypt could yield.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := parsed.Scheme
	return s == "http" || s == "https"
}

// Redact strips credentials and the query string from u for log lines.
// Playout URLs carry signed access tokens in their query; host and path are
// enough to debug with.
func Redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "<unparseable url>"
	}
	if parsed.RawQuery != "" {
		parsed.RawQuery = "..."
	}
	parsed.User = nil
	return parsed.String()
}
