package difftar

import "regexp"

const redacted = "[REDACTED]"

// The patterns are applied in order to the whole string; every pattern is
// global. The URL-userinfo pattern runs last as a post-pass so it sees
// whatever the earlier replacements left of the URL structure.
var sanitizePatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// Authorization header values, keeping the scheme name.
	{regexp.MustCompile(`(?i)(authorization:\s*)(basic|bearer)\s+\S+`), `${1}${2} ` + redacted},
	// Standalone bearer tokens.
	{regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9\-._~+/]+=*`), `${1} ` + redacted},
	// AWS credential assignments.
	{regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key)(\s*[=:]\s*)\S+`), `${1}${2}` + redacted},
	// token= query parameters with a meaningful value.
	{regexp.MustCompile(`(?i)(token=)[^&\s]{8,}`), `${1}` + redacted},
	// Generic credential assignments with base64-looking values.
	{regexp.MustCompile(`(?i)(credentials?\s*[=:]\s*)[A-Za-z0-9+/=_\-]{16,}`), `${1}` + redacted},
	// URL userinfo: both user and password slots are redacted while the URL
	// structure stays intact.
	{regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.\-]*://)[^/\s:@]+:[^/\s@]+@`), `${1}` + redacted + `:` + redacted + `@`},
}

// SanitizeCredentials replaces credential material in s with "[REDACTED]".
//
// Redacted forms: Authorization header values (Basic and Bearer), standalone
// bearer tokens, aws_access_key_id/aws_secret_access_key assignments, token=
// query parameters of eight or more characters, generic credential
// assignments, and URL userinfo.
func SanitizeCredentials(s string) string {
	for _, p := range sanitizePatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}
