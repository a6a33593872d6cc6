/**
 * @description
 * This file contains the account confirmation resolver. An inbound
 * verification link can carry one of four credential shapes; the resolver
 * runs the matching strategies in a fixed priority order against the auth
 * service and stops at the first success. Every failed attempt is recorded
 * on the outcome so the last one can be surfaced to the user.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/merchly/dashboard-service/internal/domain"
	"github.com/merchly/dashboard-service/pkg/authclient"
)

// ErrInvalidLink marks a confirmation request that carries none of the four
// credential shapes. It is raised before any auth call is made.
var ErrInvalidLink = errors.New("verification link is missing required credentials")

// AuthClient is the subset of the auth service API the resolver needs.
// *authclient.Client satisfies it.
type AuthClient interface {
	GetUser(ctx context.Context, accessToken string) (*authclient.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*authclient.Session, error)
	VerifyTokenHash(ctx context.Context, tokenHash, otpType string) (*authclient.Session, error)
	VerifyToken(ctx context.Context, token, email, otpType string) (*authclient.Session, error)
	ExchangeCode(ctx context.Context, code string) (*authclient.Session, error)
}

// Resolver establishes an authenticated session from a verification link.
type Resolver struct {
	auth   AuthClient
	logger *slog.Logger
}

// NewResolver creates a confirmation resolver.
func NewResolver(auth AuthClient, logger *slog.Logger) *Resolver {
	return &Resolver{auth: auth, logger: logger}
}

// A strategy attempts one credential shape. On success it returns the
// authenticated user; failed attempt messages are returned either way so
// fallback attempts inside a strategy still land in the error log.
type strategy struct {
	name       string
	applicable bool
	run        func(ctx context.Context) (*domain.AuthUser, []string)
}

// Confirm runs the strategy chain for the given request. It returns
// ErrInvalidLink without touching the auth service when no strategy is
// applicable; any other failure is reported through the outcome, never as
// an error.
func (r *Resolver) Confirm(ctx context.Context, req domain.VerificationRequest) (domain.ConfirmationOutcome, error) {
	var outcome domain.ConfirmationOutcome

	if !req.HasCredentials() {
		return outcome, ErrInvalidLink
	}

	otpType, recognized := domain.ParseOtpType(req.OtpType)

	strategies := []strategy{
		{
			name:       "session",
			applicable: req.AccessToken != "" && req.RefreshToken != "",
			run: func(ctx context.Context) (*domain.AuthUser, []string) {
				return r.setSession(ctx, req.AccessToken, req.RefreshToken)
			},
		},
		{
			name:       "token_hash",
			applicable: req.TokenHash != "",
			run: func(ctx context.Context) (*domain.AuthUser, []string) {
				return r.verifyWithFallback(ctx, "token hash", otpType, recognized, func(ctx context.Context, t domain.OtpType) (*authclient.Session, error) {
					return r.auth.VerifyTokenHash(ctx, req.TokenHash, string(t))
				})
			},
		},
		{
			name:       "token_email",
			applicable: req.Token != "" && req.Email != "",
			run: func(ctx context.Context) (*domain.AuthUser, []string) {
				return r.verifyWithFallback(ctx, "token", otpType, recognized, func(ctx context.Context, t domain.OtpType) (*authclient.Session, error) {
					return r.auth.VerifyToken(ctx, req.Token, req.Email, string(t))
				})
			},
		},
		{
			name:       "code_exchange",
			applicable: req.Code != "",
			run: func(ctx context.Context) (*domain.AuthUser, []string) {
				session, err := r.auth.ExchangeCode(ctx, req.Code)
				if err != nil {
					return nil, []string{fmt.Sprintf("code exchange failed: %v", err)}
				}
				return userFromSession(session), nil
			},
		},
	}

	for _, s := range strategies {
		if !s.applicable {
			continue
		}
		user, attempts := s.run(ctx)
		outcome.Errors = append(outcome.Errors, attempts...)
		if user != nil {
			outcome.Confirmed = true
			outcome.User = user
			r.logger.Info("account confirmed", "strategy", s.name, "user_id", user.ID)
			return outcome, nil
		}
		r.logger.Warn("confirmation strategy failed", "strategy", s.name)
	}

	return outcome, nil
}

// setSession validates the access token directly, falling back to a refresh
// when it is already expired.
func (r *Resolver) setSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthUser, []string) {
	user, err := r.auth.GetUser(ctx, accessToken)
	if err == nil {
		return convertUser(user), nil
	}
	attempts := []string{fmt.Sprintf("session restore failed: %v", err)}

	session, err := r.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, append(attempts, fmt.Sprintf("session refresh failed: %v", err))
	}
	return userFromSession(session), attempts
}

// verifyWithFallback runs a single verification when the link carried a
// recognized OTP type. Links without one are ambiguous across email
// templates, so signup is tried first and email second.
func (r *Resolver) verifyWithFallback(
	ctx context.Context,
	label string,
	otpType domain.OtpType,
	recognized bool,
	verify func(ctx context.Context, t domain.OtpType) (*authclient.Session, error),
) (*domain.AuthUser, []string) {
	if recognized {
		session, err := verify(ctx, otpType)
		if err != nil {
			return nil, []string{fmt.Sprintf("%s verification failed for type %s: %v", label, otpType, err)}
		}
		return userFromSession(session), nil
	}

	session, err := verify(ctx, domain.OtpSignup)
	if err == nil {
		return userFromSession(session), nil
	}
	attempts := []string{fmt.Sprintf("%s verification failed for type %s: %v", label, domain.OtpSignup, err)}

	session, err = verify(ctx, domain.OtpEmail)
	if err != nil {
		return nil, append(attempts, fmt.Sprintf("%s verification failed for type %s: %v", label, domain.OtpEmail, err))
	}
	return userFromSession(session), attempts
}

func convertUser(user *authclient.User) *domain.AuthUser {
	if user == nil {
		return nil
	}
	return &domain.AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Metadata: domain.SignupMetadata{
			BusinessName: user.Metadata.BusinessName,
			PhoneNumber:  user.Metadata.PhoneNumber,
			Country:      user.Metadata.Country,
		},
	}
}

func userFromSession(session *authclient.Session) *domain.AuthUser {
	if session == nil {
		return nil
	}
	return convertUser(&session.User)
}
