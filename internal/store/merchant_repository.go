/**
 * @description
 * Data access for merchant rows. The merchants table carries a unique
 * constraint on user_id; creation relies on it with insert-ignore-conflict
 * semantics so two concurrent confirmations for the same user can never
 * produce a duplicate row.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchly/dashboard-service/internal/domain"
)

// ErrMerchantNotFound is returned when no merchant row exists for a user.
var ErrMerchantNotFound = errors.New("merchant not found")

// MerchantRepository defines the interface for merchant data storage.
type MerchantRepository interface {
	CreateIfAbsent(ctx context.Context, merchant *domain.Merchant) (bool, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Merchant, error)
	MarkStepComplete(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.Merchant, bool, error)
}

var stepColumns = map[domain.ComplianceStep]string{
	domain.StepProfile:          "profile_completed",
	domain.StepContact:          "contact_completed",
	domain.StepOwner:            "owner_completed",
	domain.StepAccount:          "account_completed",
	domain.StepServiceAgreement: "service_agreement_completed",
}

// PostgresMerchantRepository is the PostgreSQL implementation of the
// MerchantRepository.
type PostgresMerchantRepository struct {
	db *pgxpool.Pool
}

// NewPostgresMerchantRepository creates a new instance of
// PostgresMerchantRepository.
func NewPostgresMerchantRepository(db *pgxpool.Pool) *PostgresMerchantRepository {
	return &PostgresMerchantRepository{db: db}
}

// CreateIfAbsent inserts a merchant row unless one already exists for the
// user. It reports whether a row was actually created.
func (r *PostgresMerchantRepository) CreateIfAbsent(ctx context.Context, merchant *domain.Merchant) (bool, error) {
	query := `
        INSERT INTO merchants (user_id, business_name, email, phone_number, country)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query,
		merchant.UserID,
		merchant.BusinessName,
		merchant.Email,
		merchant.PhoneNumber,
		merchant.Country,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindByUserID retrieves the merchant row for a user.
func (r *PostgresMerchantRepository) FindByUserID(ctx context.Context, userID string) (*domain.Merchant, error) {
	var merchant domain.Merchant
	query := `
        SELECT id, user_id, business_name, email, phone_number, country,
               profile_completed, contact_completed, owner_completed,
               account_completed, service_agreement_completed,
               completed_at, created_at, updated_at
        FROM merchants
        WHERE user_id = $1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&merchant.ID,
		&merchant.UserID,
		&merchant.BusinessName,
		&merchant.Email,
		&merchant.PhoneNumber,
		&merchant.Country,
		&merchant.ProfileCompleted,
		&merchant.ContactCompleted,
		&merchant.OwnerCompleted,
		&merchant.AccountCompleted,
		&merchant.ServiceAgreementCompleted,
		&merchant.CompletedAt,
		&merchant.CreatedAt,
		&merchant.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// MarkStepComplete marks one onboarding step complete and stamps
// completed_at the first time all five steps are done. It returns the
// updated row and whether this call produced the completion stamp.
func (r *PostgresMerchantRepository) MarkStepComplete(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.Merchant, bool, error) {
	column, ok := stepColumns[step]
	if !ok {
		return nil, false, fmt.Errorf("unknown compliance step %q", step)
	}

	// column comes from the fixed step map, never from input.
	updateQuery := fmt.Sprintf(`UPDATE merchants SET %s = TRUE, updated_at = NOW() WHERE user_id = $1`, column)
	tag, err := r.db.Exec(ctx, updateQuery, userID)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 0 {
		return nil, false, ErrMerchantNotFound
	}

	stampQuery := `
        UPDATE merchants
        SET completed_at = NOW()
        WHERE user_id = $1
          AND completed_at IS NULL
          AND profile_completed
          AND contact_completed
          AND owner_completed
          AND account_completed
          AND service_agreement_completed
    `
	stampTag, err := r.db.Exec(ctx, stampQuery, userID)
	if err != nil {
		return nil, false, err
	}

	merchant, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return merchant, stampTag.RowsAffected() > 0, nil
}
