/**
 * @description
 * This file contains the merchant record ensurer. After an account is
 * confirmed it guarantees exactly one merchant profile row exists for the
 * user, seeded from the signup metadata. Creation is best-effort: a storage
 * or publish failure is logged and never fails the confirmation.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/merchly/dashboard-service/internal/domain"
	"github.com/merchly/dashboard-service/internal/store"
	"github.com/merchly/dashboard-service/pkg/rabbitmq"
)

const merchantEventsExchange = "merchant_events"

// Ensurer creates merchant rows for newly confirmed accounts.
type Ensurer struct {
	repo      store.MerchantRepository
	publisher rabbitmq.Publisher
	logger    *slog.Logger
}

// NewEnsurer creates a merchant ensurer.
func NewEnsurer(repo store.MerchantRepository, publisher rabbitmq.Publisher, logger *slog.Logger) *Ensurer {
	return &Ensurer{repo: repo, publisher: publisher, logger: logger}
}

// EnsureMerchant creates the merchant row for the user unless one already
// exists. The insert ignores conflicts on user_id, so concurrent
// confirmations for the same user cannot produce duplicates. Safe to call
// on every confirmation.
func (e *Ensurer) EnsureMerchant(ctx context.Context, user *domain.AuthUser) {
	if user == nil || user.ID == "" {
		return
	}

	merchant := &domain.Merchant{
		UserID:       user.ID,
		Email:        optional(user.Email),
		BusinessName: optional(user.Metadata.BusinessName),
		PhoneNumber:  optional(user.Metadata.PhoneNumber),
		Country:      optional(user.Metadata.Country),
	}

	created, err := e.repo.CreateIfAbsent(ctx, merchant)
	if err != nil {
		// Invisible to the end user: confirmation already succeeded.
		e.logger.Error("merchant row creation failed", "user_id", user.ID, "error", err)
		return
	}
	if !created {
		return
	}

	e.logger.Info("merchant row created", "user_id", user.ID)

	event := domain.MerchantCreatedEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		BusinessName: user.Metadata.BusinessName,
		Country:      user.Metadata.Country,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, merchantEventsExchange, "merchant.created", event); err != nil {
		e.logger.Error("failed to publish merchant.created event", "user_id", user.ID, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
