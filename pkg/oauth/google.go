package oauth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/pkg/config"
)

// ErrMissingAudience is returned when no Google client id is configured.
var ErrMissingAudience = errors.New("google client id not configured")

// GoogleVerifier validates Google ID tokens issued for the configured client.
type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
}

// NewGoogleVerifier constructs a verifier that caches Google's signing certs.
func NewGoogleVerifier(ctx context.Context, cfg config.GoogleConfig) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &GoogleVerifier{clientID: cfg.ClientID, validator: validator}, nil
}

// Verify checks the token signature, issuer, expiry and audience and returns
// the identity it carries.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*models.GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, ErrMissingAudience
	}
	payload, err := v.validator.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) *models.GoogleIdentity {
	identity := &models.GoogleIdentity{Subject: subject}
	identity.Email, _ = claims["email"].(string)
	identity.Name, _ = claims["name"].(string)

	switch verified := claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = verified
	case string:
		identity.EmailVerified = verified == "true"
	}
	return identity
}
