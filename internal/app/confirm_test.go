package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/merchly/dashboard-service/internal/domain"
	"github.com/merchly/dashboard-service/pkg/authclient"
)

type authStub struct {
	calls []string

	getUser     func(accessToken string) (*authclient.User, error)
	refresh     func(refreshToken string) (*authclient.Session, error)
	verifyHash  func(tokenHash, otpType string) (*authclient.Session, error)
	verifyToken func(token, email, otpType string) (*authclient.Session, error)
	exchange    func(code string) (*authclient.Session, error)
}

func (s *authStub) GetUser(ctx context.Context, accessToken string) (*authclient.User, error) {
	s.calls = append(s.calls, "get_user")
	if s.getUser == nil {
		return nil, errors.New("unexpected GetUser call")
	}
	return s.getUser(accessToken)
}

func (s *authStub) RefreshSession(ctx context.Context, refreshToken string) (*authclient.Session, error) {
	s.calls = append(s.calls, "refresh")
	if s.refresh == nil {
		return nil, errors.New("unexpected RefreshSession call")
	}
	return s.refresh(refreshToken)
}

func (s *authStub) VerifyTokenHash(ctx context.Context, tokenHash, otpType string) (*authclient.Session, error) {
	s.calls = append(s.calls, "verify_hash:"+otpType)
	if s.verifyHash == nil {
		return nil, errors.New("unexpected VerifyTokenHash call")
	}
	return s.verifyHash(tokenHash, otpType)
}

func (s *authStub) VerifyToken(ctx context.Context, token, email, otpType string) (*authclient.Session, error) {
	s.calls = append(s.calls, "verify_token:"+otpType)
	if s.verifyToken == nil {
		return nil, errors.New("unexpected VerifyToken call")
	}
	return s.verifyToken(token, email, otpType)
}

func (s *authStub) ExchangeCode(ctx context.Context, code string) (*authclient.Session, error) {
	s.calls = append(s.calls, "exchange")
	if s.exchange == nil {
		return nil, errors.New("unexpected ExchangeCode call")
	}
	return s.exchange(code)
}

func testSession(userID string) *authclient.Session {
	session := &authclient.Session{AccessToken: "at", RefreshToken: "rt"}
	session.User.ID = userID
	session.User.Email = userID + "@example.com"
	return session
}

func newTestResolver(stub *authStub) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(stub, logger)
}

func TestConfirm_EachShapeSucceedsFirstCall(t *testing.T) {
	cases := []struct {
		name string
		req  domain.VerificationRequest
		stub *authStub
	}{
		{
			name: "access and refresh token pair",
			req:  domain.VerificationRequest{AccessToken: "at", RefreshToken: "rt"},
			stub: &authStub{getUser: func(string) (*authclient.User, error) {
				return &authclient.User{ID: "user-1"}, nil
			}},
		},
		{
			name: "token hash",
			req:  domain.VerificationRequest{TokenHash: "hash", OtpType: "signup"},
			stub: &authStub{verifyHash: func(string, string) (*authclient.Session, error) {
				return testSession("user-1"), nil
			}},
		},
		{
			name: "token and email",
			req:  domain.VerificationRequest{Token: "tok", Email: "a@b.com", OtpType: "signup"},
			stub: &authStub{verifyToken: func(string, string, string) (*authclient.Session, error) {
				return testSession("user-1"), nil
			}},
		},
		{
			name: "exchange code",
			req:  domain.VerificationRequest{Code: "one-time-code"},
			stub: &authStub{exchange: func(string) (*authclient.Session, error) {
				return testSession("user-1"), nil
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := newTestResolver(tc.stub).Confirm(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("Confirm returned error: %v", err)
			}
			if !outcome.Confirmed {
				t.Fatal("expected confirmation to succeed")
			}
			if len(outcome.Errors) != 0 {
				t.Fatalf("expected empty error log, got %v", outcome.Errors)
			}
			if outcome.User == nil || outcome.User.ID != "user-1" {
				t.Fatalf("expected user-1 in outcome, got %+v", outcome.User)
			}
			if len(tc.stub.calls) != 1 {
				t.Fatalf("expected exactly one auth call, got %v", tc.stub.calls)
			}
		})
	}
}

func TestConfirm_InvalidLinkMakesNoAuthCalls(t *testing.T) {
	stub := &authStub{}
	req := domain.VerificationRequest{Email: "lonely@example.com", OtpType: "signup"}

	_, err := newTestResolver(stub).Confirm(context.Background(), req)
	if !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("expected zero auth calls, got %v", stub.calls)
	}
}

func TestConfirm_MissingTypeFallsBackFromSignupToEmail(t *testing.T) {
	stub := &authStub{verifyHash: func(_, otpType string) (*authclient.Session, error) {
		if otpType == "signup" {
			return nil, errors.New("token has expired")
		}
		return testSession("user-2"), nil
	}}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), domain.VerificationRequest{TokenHash: "hash"})
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !outcome.Confirmed {
		t.Fatal("expected fallback pair to confirm")
	}
	if len(outcome.Errors) != 1 {
		t.Fatalf("expected exactly one recorded failure, got %v", outcome.Errors)
	}
	if !strings.Contains(outcome.Errors[0], "signup") {
		t.Fatalf("expected the recorded failure to be the signup attempt, got %q", outcome.Errors[0])
	}
	want := []string{"verify_hash:signup", "verify_hash:email"}
	if fmt.Sprint(stub.calls) != fmt.Sprint(want) {
		t.Fatalf("expected calls %v, got %v", want, stub.calls)
	}
}

func TestConfirm_UnrecognizedTypeTreatedAsAbsent(t *testing.T) {
	stub := &authStub{verifyToken: func(_, _, otpType string) (*authclient.Session, error) {
		if otpType == "signup" {
			return nil, errors.New("otp expired")
		}
		return testSession("user-3"), nil
	}}
	req := domain.VerificationRequest{Token: "tok", Email: "a@b.com", OtpType: "mystery"}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !outcome.Confirmed {
		t.Fatal("expected unrecognized type to fall back, not hard-fail")
	}
	want := []string{"verify_token:signup", "verify_token:email"}
	if fmt.Sprint(stub.calls) != fmt.Sprint(want) {
		t.Fatalf("expected calls %v, got %v", want, stub.calls)
	}
}

func TestConfirm_RecognizedTypeUsedWithoutFallback(t *testing.T) {
	stub := &authStub{verifyHash: func(_, otpType string) (*authclient.Session, error) {
		return nil, fmt.Errorf("verification failed for %s", otpType)
	}}
	req := domain.VerificationRequest{TokenHash: "hash", OtpType: "recovery"}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if outcome.Confirmed {
		t.Fatal("expected confirmation to fail")
	}
	want := []string{"verify_hash:recovery"}
	if fmt.Sprint(stub.calls) != fmt.Sprint(want) {
		t.Fatalf("expected a single recovery attempt, got %v", stub.calls)
	}
}

func TestConfirm_StrategiesRunInPriorityOrder(t *testing.T) {
	stub := &authStub{
		getUser: func(string) (*authclient.User, error) {
			return &authclient.User{ID: "user-4"}, nil
		},
	}
	req := domain.VerificationRequest{
		AccessToken:  "at",
		RefreshToken: "rt",
		Code:         "also-present",
	}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !outcome.Confirmed {
		t.Fatal("expected session strategy to confirm")
	}
	if fmt.Sprint(stub.calls) != fmt.Sprint([]string{"get_user"}) {
		t.Fatalf("expected only the session strategy to run, got %v", stub.calls)
	}
}

func TestConfirm_ExpiredAccessTokenFallsBackToRefresh(t *testing.T) {
	stub := &authStub{
		getUser: func(string) (*authclient.User, error) {
			return nil, errors.New("token expired")
		},
		refresh: func(string) (*authclient.Session, error) {
			return testSession("user-5"), nil
		},
	}
	req := domain.VerificationRequest{AccessToken: "stale", RefreshToken: "rt"}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !outcome.Confirmed {
		t.Fatal("expected refresh fallback to confirm")
	}
	if len(outcome.Errors) != 1 {
		t.Fatalf("expected the failed direct attempt in the log, got %v", outcome.Errors)
	}
}

func TestConfirm_AllStrategiesFailAccumulatesErrors(t *testing.T) {
	stub := &authStub{
		verifyHash: func(_, otpType string) (*authclient.Session, error) {
			return nil, fmt.Errorf("hash rejected (%s)", otpType)
		},
		exchange: func(string) (*authclient.Session, error) {
			return nil, errors.New("code already used")
		},
	}
	req := domain.VerificationRequest{TokenHash: "hash", Code: "code"}

	outcome, err := newTestResolver(stub).Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if outcome.Confirmed {
		t.Fatal("expected confirmation to fail")
	}
	// signup attempt, email fallback, then the code exchange.
	if len(outcome.Errors) != 3 {
		t.Fatalf("expected three recorded failures, got %v", outcome.Errors)
	}
	if !strings.Contains(outcome.LastError(), "code already used") {
		t.Fatalf("expected the last error to come from the final strategy, got %q", outcome.LastError())
	}
}
