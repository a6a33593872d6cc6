package app

import "github.com/merchly/dashboard-service/internal/domain"

// ComputeStats derives dashboard statistics from the full transaction set.
// It is recomputed on every request; the source list is small and static.
func ComputeStats(transactions []domain.Transaction) domain.DashboardStats {
	stats := domain.DashboardStats{
		TotalTransactions: len(transactions),
	}

	successful := 0
	for _, tx := range transactions {
		switch tx.Status {
		case domain.TransactionSuccessful:
			stats.TotalRevenue += tx.Amount
			successful++
		case domain.TransactionPending:
			stats.PendingAmount += tx.Amount
		}
	}

	if len(transactions) > 0 {
		stats.SuccessRate = float64(successful) / float64(len(transactions)) * 100
	}
	return stats
}
