/**
 * @description
 * Credential shapes for the account confirmation flow. A verification link
 * can carry any of four field combinations depending on which email template
 * produced it; the resolver tries them in a fixed priority order.
 */
package domain

// OtpType identifies which kind of one-time verification a token belongs to.
type OtpType string

const (
	OtpSignup      OtpType = "signup"
	OtpRecovery    OtpType = "recovery"
	OtpInvite      OtpType = "invite"
	OtpMagicLink   OtpType = "magiclink"
	OtpEmail       OtpType = "email"
	OtpEmailChange OtpType = "email_change"
)

// ParseOtpType normalizes a raw type value from a verification link. An
// unrecognized string is treated as absent, not as an error, so that links
// from unknown email templates still get the fallback dual-attempt.
func ParseOtpType(raw string) (OtpType, bool) {
	switch OtpType(raw) {
	case OtpSignup, OtpRecovery, OtpInvite, OtpMagicLink, OtpEmail, OtpEmailChange:
		return OtpType(raw), true
	default:
		return "", false
	}
}

// VerificationRequest is the union of credential shapes extracted from an
// inbound confirmation link. Multiple shapes may be present at once.
type VerificationRequest struct {
	AccessToken  string
	RefreshToken string
	TokenHash    string
	Token        string
	Email        string
	Code         string
	OtpType      string
}

// HasCredentials reports whether at least one strategy's required fields are
// fully present. Requests failing this check are rejected before any
// external call is made.
func (r VerificationRequest) HasCredentials() bool {
	return (r.AccessToken != "" && r.RefreshToken != "") ||
		r.TokenHash != "" ||
		(r.Token != "" && r.Email != "") ||
		r.Code != ""
}

// AuthUser is the authenticated identity returned by the auth service after
// a successful confirmation.
type AuthUser struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata SignupMetadata `json:"user_metadata"`
}

// ConfirmationOutcome is the result of running the strategy chain. Errors
// accumulate across every attempted strategy; the last entry is the one
// surfaced to the end user on failure.
type ConfirmationOutcome struct {
	Confirmed bool
	User      *AuthUser
	Errors    []string
}

// LastError returns the most recent strategy failure, or an empty string
// when nothing was attempted.
func (o ConfirmationOutcome) LastError() string {
	if len(o.Errors) == 0 {
		return ""
	}
	return o.Errors[len(o.Errors)-1]
}
