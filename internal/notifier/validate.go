package notifier

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf16"
)

const (
	maxEmailLength = 255
	maxURLLength   = 500
)

// browserSpace is the whitespace set of a browser's `\s` and String.trim,
// which is wider than RE2's ASCII-only `\s`.
const browserSpace = `\t\n\x0B\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var emailPattern = regexp.MustCompile(`^[^` + browserSpace + `@]+@[^` + browserSpace + `@]+\.[^` + browserSpace + `@]+$`)

func isBrowserSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

func trimSpace(s string) string { return strings.TrimFunc(s, isBrowserSpace) }

// textLength counts UTF-16 code units, the unit the length limits are stated in.
func textLength(s string) int { return len(utf16.Encode([]rune(s))) }

// hostSchemes must carry an authority to be a well-formed URL.
var hostSchemes = map[string]bool{"http": true, "https": true, "ws": true, "wss": true, "ftp": true}

// ValidationError is a client-side input problem; its message is safe to return.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// VerificationRequest is a sanitized request to send a verification email.
type VerificationRequest struct {
	Email           string `json:"email"`
	VerificationURL string `json:"verificationUrl"`
}

// ValidateVerificationRequest trims and lower-cases the email, trims the URL,
// and checks both against the format and length rules. Any absolute URL is
// well-formed; only then is the scheme required to be https.
func ValidateVerificationRequest(email, verificationURL string) (VerificationRequest, error) {
	if email == "" {
		return VerificationRequest{}, invalid("Email is required")
	}
	cleanEmail := strings.ToLower(trimSpace(email))
	if textLength(cleanEmail) > maxEmailLength {
		return VerificationRequest{}, invalid("Email must be less than 255 characters")
	}
	if !emailPattern.MatchString(cleanEmail) {
		return VerificationRequest{}, invalid("Invalid email format")
	}

	if verificationURL == "" {
		return VerificationRequest{}, invalid("Verification URL is required")
	}
	cleanURL := trimSpace(verificationURL)
	if textLength(cleanURL) > maxURLLength {
		return VerificationRequest{}, invalid("Verification URL must be less than 500 characters")
	}
	u, err := url.Parse(cleanURL)
	if err != nil || u.Scheme == "" || (hostSchemes[u.Scheme] && u.Host == "" && u.Opaque == "") {
		return VerificationRequest{}, invalid("Invalid verification URL format")
	}
	if u.Scheme != "https" {
		return VerificationRequest{}, invalid("Verification URL must use HTTPS")
	}

	return VerificationRequest{Email: cleanEmail, VerificationURL: cleanURL}, nil
}
