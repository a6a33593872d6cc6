package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/merchly/dashboard-service/internal/domain"
)

type merchantRepoStub struct {
	rows       map[string]*domain.Merchant
	inserts    int
	createErr  error
	findErr    error
	markResult *domain.Merchant
}

func newMerchantRepoStub() *merchantRepoStub {
	return &merchantRepoStub{rows: map[string]*domain.Merchant{}}
}

func (s *merchantRepoStub) CreateIfAbsent(ctx context.Context, merchant *domain.Merchant) (bool, error) {
	if s.createErr != nil {
		return false, s.createErr
	}
	if _, exists := s.rows[merchant.UserID]; exists {
		return false, nil
	}
	s.inserts++
	s.rows[merchant.UserID] = merchant
	return true, nil
}

func (s *merchantRepoStub) FindByUserID(ctx context.Context, userID string) (*domain.Merchant, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	merchant, ok := s.rows[userID]
	if !ok {
		return nil, errors.New("merchant not found")
	}
	return merchant, nil
}

func (s *merchantRepoStub) MarkStepComplete(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.Merchant, bool, error) {
	if s.markResult != nil {
		return s.markResult, s.markResult.CompletedAt != nil, nil
	}
	merchant, err := s.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return merchant, false, nil
}

type publisherStub struct {
	published []string
	err       error
}

func (s *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, routingKey)
	return nil
}

func (s *publisherStub) Close() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsureMerchant_SecondCallIsNoOp(t *testing.T) {
	repo := newMerchantRepoStub()
	publisher := &publisherStub{}
	ensurer := NewEnsurer(repo, publisher, discardLogger())

	user := &domain.AuthUser{
		ID:    "user-1",
		Email: "owner@shop.example",
		Metadata: domain.SignupMetadata{
			BusinessName: "Shop Example",
			Country:      "NG",
		},
	}

	ensurer.EnsureMerchant(context.Background(), user)
	ensurer.EnsureMerchant(context.Background(), user)

	if repo.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", repo.inserts)
	}
	if len(publisher.published) != 1 || publisher.published[0] != "merchant.created" {
		t.Fatalf("expected one merchant.created event, got %v", publisher.published)
	}
}

func TestEnsureMerchant_NilUserIsNoOp(t *testing.T) {
	repo := newMerchantRepoStub()
	ensurer := NewEnsurer(repo, &publisherStub{}, discardLogger())

	ensurer.EnsureMerchant(context.Background(), nil)

	if repo.inserts != 0 {
		t.Fatalf("expected no insert for nil user, got %d", repo.inserts)
	}
}

func TestEnsureMerchant_InsertFailureIsSwallowed(t *testing.T) {
	repo := newMerchantRepoStub()
	repo.createErr = errors.New("connection refused")
	publisher := &publisherStub{}
	ensurer := NewEnsurer(repo, publisher, discardLogger())

	// Must not panic and must not publish; confirmation already succeeded
	// from the caller's perspective.
	ensurer.EnsureMerchant(context.Background(), &domain.AuthUser{ID: "user-1"})

	if len(publisher.published) != 0 {
		t.Fatalf("expected no events after a failed insert, got %v", publisher.published)
	}
}

func TestEnsureMerchant_MissingMetadataDefaultsToNull(t *testing.T) {
	repo := newMerchantRepoStub()
	ensurer := NewEnsurer(repo, &publisherStub{}, discardLogger())

	ensurer.EnsureMerchant(context.Background(), &domain.AuthUser{ID: "user-1"})

	row := repo.rows["user-1"]
	if row == nil {
		t.Fatal("expected a merchant row")
	}
	if row.BusinessName != nil || row.PhoneNumber != nil || row.Country != nil || row.Email != nil {
		t.Fatalf("expected absent metadata to stay null, got %+v", row)
	}
}

func TestEnsureMerchant_PublishFailureStillCreatesRow(t *testing.T) {
	repo := newMerchantRepoStub()
	publisher := &publisherStub{err: errors.New("broker down")}
	ensurer := NewEnsurer(repo, publisher, discardLogger())

	ensurer.EnsureMerchant(context.Background(), &domain.AuthUser{ID: "user-1"})

	if repo.inserts != 1 {
		t.Fatalf("expected the row despite the publish failure, got %d inserts", repo.inserts)
	}
}
