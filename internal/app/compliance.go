/**
 * @description
 * Compliance onboarding logic: progress derivation, next-step computation,
 * the forward-skip guard, and step completion. The merchant record in
 * Postgres is the single source of truth; Redis only caches the derived
 * progress and is invalidated on every write.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/merchly/dashboard-service/internal/domain"
	"github.com/merchly/dashboard-service/internal/store"
	"github.com/merchly/dashboard-service/pkg/rabbitmq"
)

// ProgressCache is the load/save/clear contract for cached compliance
// progress. A nil implementation is valid and disables caching.
type ProgressCache interface {
	Get(ctx context.Context, userID string) (*domain.ComplianceProgress, bool)
	Set(ctx context.Context, userID string, progress domain.ComplianceProgress)
	Clear(ctx context.Context, userID string)
}

// ComplianceService computes and advances onboarding state.
type ComplianceService struct {
	repo      store.MerchantRepository
	cache     ProgressCache
	publisher rabbitmq.Publisher
	logger    *slog.Logger
}

// NewComplianceService creates a compliance service. cache may be nil.
func NewComplianceService(repo store.MerchantRepository, cache ProgressCache, publisher rabbitmq.Publisher, logger *slog.Logger) *ComplianceService {
	return &ComplianceService{repo: repo, cache: cache, publisher: publisher, logger: logger}
}

// ProgressFromMerchant derives onboarding progress from a merchant record.
// An explicit completion marker is authoritative over the itemized flags.
func ProgressFromMerchant(m *domain.Merchant) domain.ComplianceProgress {
	total := len(domain.ComplianceSteps)

	if m.CompletedAt != nil {
		return domain.ComplianceProgress{
			CompletedSteps: total,
			TotalSteps:     total,
			Complete:       true,
		}
	}

	completed := 0
	for _, step := range domain.ComplianceSteps {
		if m.StepCompleted(step) {
			completed++
		}
	}

	progress := domain.ComplianceProgress{
		CompletedSteps: completed,
		TotalSteps:     total,
		Complete:       completed == total,
	}
	if next, ok := NextIncompleteStep(m); ok {
		progress.NextStep = &next
	}
	return progress
}

// NextIncompleteStep returns the first step in the fixed sequence that is
// not marked complete. Sequence order, not completion order, decides.
func NextIncompleteStep(m *domain.Merchant) (domain.ComplianceStep, bool) {
	if m.CompletedAt != nil {
		return "", false
	}
	for _, step := range domain.ComplianceSteps {
		if !m.StepCompleted(step) {
			return step, true
		}
	}
	return "", false
}

// Progress returns the user's onboarding progress, serving from cache when
// possible.
func (s *ComplianceService) Progress(ctx context.Context, userID string) (*domain.ComplianceProgress, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, userID); ok {
			return cached, nil
		}
	}

	merchant, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress := ProgressFromMerchant(merchant)
	if s.cache != nil {
		s.cache.Set(ctx, userID, progress)
	}
	return &progress, nil
}

// GuardStep decides whether the user may open step page `step`. Completed
// steps may be revisited in any order; skipping ahead of the next
// incomplete step is redirected back to it. A nil result means access is
// allowed.
func (s *ComplianceService) GuardStep(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.ComplianceStep, error) {
	merchant, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, ok := NextIncompleteStep(merchant)
	if !ok {
		return nil, nil
	}
	if step == next || merchant.StepCompleted(step) {
		return nil, nil
	}
	return &next, nil
}

// MarkStepComplete persists a step completion, invalidates the cached
// progress and publishes a completion event when the final step lands.
// Steps are monotonic; re-completing a step is a no-op at the store.
func (s *ComplianceService) MarkStepComplete(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.ComplianceProgress, error) {
	merchant, completedNow, err := s.repo.MarkStepComplete(ctx, userID, step)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Clear(ctx, userID)
	}

	if completedNow && merchant.CompletedAt != nil {
		event := domain.ComplianceCompletedEvent{
			EventID:     uuid.NewString(),
			UserID:      userID,
			CompletedAt: *merchant.CompletedAt,
		}
		if err := s.publisher.Publish(ctx, merchantEventsExchange, "merchant.compliance_completed", event); err != nil {
			s.logger.Error("failed to publish compliance completion event", "user_id", userID, "error", err)
		}
	}

	progress := ProgressFromMerchant(merchant)
	return &progress, nil
}
