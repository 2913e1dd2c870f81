package models

import "github.com/golang-jwt/jwt/v5"

// AuthStatus is the outcome of resolving a bearer token.
type AuthStatus int

const (
	AuthUnauthenticated AuthStatus = iota
	AuthInvalid
	AuthExpired
	AuthIdentified
)

func (s AuthStatus) String() string {
	switch s {
	case AuthInvalid:
		return "invalid"
	case AuthExpired:
		return "expired"
	case AuthIdentified:
		return "identified"
	default:
		return "unauthenticated"
	}
}

// AuthResult is the immutable identity attached to a request. Only an
// identified result carries a contributor id.
type AuthResult struct {
	status        AuthStatus
	contributorID string
}

// Unauthenticated is the result for requests without a usable header.
func Unauthenticated() AuthResult { return AuthResult{status: AuthUnauthenticated} }

// InvalidToken is the result for tokens failing signature or format checks.
func InvalidToken() AuthResult { return AuthResult{status: AuthInvalid} }

// ExpiredToken is the result for well-signed tokens past their expiry.
func ExpiredToken() AuthResult { return AuthResult{status: AuthExpired} }

// Identified is the result for a valid token.
func Identified(contributorID string) AuthResult {
	return AuthResult{status: AuthIdentified, contributorID: contributorID}
}

// Status returns the resolution outcome.
func (r AuthResult) Status() AuthStatus { return r.status }

// ContributorID returns the embedded id and whether the token was valid.
func (r AuthResult) ContributorID() (string, bool) {
	return r.contributorID, r.status == AuthIdentified
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// GoogleSignInRequest carries the Google ID token from the client.
type GoogleSignInRequest struct {
	TokenID string `json:"tokenId"`
}

// GoogleIdentity is the verified subset of a Google ID token payload.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// SignInProfile is the public part of the sign-in response.
type SignInProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SignInResponse returns the session token for the signed-in contributor.
type SignInResponse struct {
	Data  SignInProfile `json:"data"`
	Token string        `json:"token"`
}
