package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

const (
	usernameMinLength = 5
	usernameMaxLength = 256
)

type authContributorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Contributor, error)
	FindByEmail(ctx context.Context, email string) (*models.Contributor, error)
	Create(ctx context.Context, contributor *models.Contributor) error
	PromoteSuperUser(ctx context.Context, email string) (bool, error)
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*models.GoogleIdentity, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret         string
	Expiry         time.Duration
	SuperUserEmail string
}

// AuthService signs contributors in with Google and resolves session tokens.
type AuthService struct {
	repo   authContributorRepository
	google GoogleVerifier
	logger *zap.Logger
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authContributorRepository, google GoogleVerifier, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	config.SuperUserEmail = strings.ToLower(strings.TrimSpace(config.SuperUserEmail))
	return &AuthService{repo: repo, google: google, logger: logger, config: config}
}

// SignInWithGoogle verifies the Google ID token, registers the contributor on
// first use and issues a session token.
func (s *AuthService) SignInWithGoogle(ctx context.Context, req models.GoogleSignInRequest) (*models.SignInResponse, error) {
	token := strings.TrimSpace(req.TokenID)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no user specified")
	}

	identity, err := s.google.Verify(ctx, token)
	if err != nil {
		s.logger.Warn("google token verification failed", zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if !identity.EmailVerified || identity.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please use a verified Google account")
	}

	contributor, err := s.findOrRegister(ctx, identity)
	if err != nil {
		return nil, err
	}

	signed, err := s.GenerateToken(contributor)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create session token")
	}

	return &models.SignInResponse{
		Data:  models.SignInProfile{Username: contributor.Username, Email: contributor.Email},
		Token: signed,
	}, nil
}

func (s *AuthService) findOrRegister(ctx context.Context, identity *models.GoogleIdentity) (*models.Contributor, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	isSuperUser := s.config.SuperUserEmail != "" && email == s.config.SuperUserEmail

	contributor, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if isSuperUser && !contributor.IsSuperUser {
			if _, err := s.repo.PromoteSuperUser(ctx, email); err != nil {
				s.logger.Warn("failed to promote superuser on sign in", zap.Error(err))
			} else {
				contributor.IsSuperUser = true
			}
		}
		return contributor, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to load contributor")
	}

	contributor = &models.Contributor{
		Username:    deriveUsername(identity.Name, email),
		Email:       email,
		IsSuperUser: isSuperUser,
	}
	if err := s.repo.Create(ctx, contributor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username is already taken")
		}
		return nil, appErrors.Internal(err, "failed to register contributor")
	}
	if isSuperUser {
		if _, err := s.repo.PromoteSuperUser(ctx, email); err != nil {
			s.logger.Warn("failed to demote previous superuser", zap.Error(err))
		}
	}

	s.logger.Info("contributor registered", zap.String("contributor_id", contributor.ID))
	return contributor, nil
}

// deriveUsername uses the Google display name, falling back to the local part
// of the email, and pads or truncates it to the accepted length.
func deriveUsername(name, email string) string {
	username := strings.TrimSpace(name)
	if utf8.RuneCountInString(username) < usernameMinLength {
		local := email
		if at := strings.IndexByte(email, '@'); at >= 0 {
			local = email[:at]
		}
		if username == "" {
			username = local
		} else if local != "" {
			username = username + " " + local
		}
	}
	if n := utf8.RuneCountInString(username); n < usernameMinLength {
		username += strings.Repeat("_", usernameMinLength-n)
	}
	if utf8.RuneCountInString(username) > usernameMaxLength {
		username = string([]rune(username)[:usernameMaxLength])
	}
	return username
}

// GenerateToken signs a session token for contributor.
func (s *AuthService) GenerateToken(contributor *models.Contributor) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		ID: contributor.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   contributor.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// Resolve classifies the Authorization header value. It never fails; the
// returned value tells callers whether and why the request is anonymous.
func (s *AuthService) Resolve(header string) models.AuthResult {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Unauthenticated()
	}

	claims := &models.JWTClaims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.ExpiredToken()
		}
		return models.InvalidToken()
	}
	if claims.ID == "" {
		return models.InvalidToken()
	}
	return models.Identified(claims.ID)
}

// EnsureSuperUser promotes the configured superuser account if it exists.
func (s *AuthService) EnsureSuperUser(ctx context.Context) error {
	if s.config.SuperUserEmail == "" {
		s.logger.Warn("no superuser email configured")
		return nil
	}
	promoted, err := s.repo.PromoteSuperUser(ctx, s.config.SuperUserEmail)
	if err != nil {
		return fmt.Errorf("ensure superuser: %w", err)
	}
	if !promoted {
		s.logger.Info("superuser account not registered yet, it will be promoted on first sign in")
	}
	return nil
}
