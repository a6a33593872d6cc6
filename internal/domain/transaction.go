package domain

// TransactionStatus is the settlement state of a dashboard transaction.
type TransactionStatus string

const (
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
	TransactionPending    TransactionStatus = "pending"
)

// Transaction is a single payment as rendered on the dashboard. The data is
// read-only fixture content; there is no lifecycle beyond load-at-request.
type Transaction struct {
	ID            string            `json:"id"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	Customer      string            `json:"customer"`
	Email         string            `json:"email"`
	Date          string            `json:"date"`
	PaymentMethod string            `json:"payment_method"`
	Description   string            `json:"description,omitempty"`
	Currency      string            `json:"currency,omitempty"`
}

// DashboardStats is derived from the full transaction set on every request.
// It is never cached or persisted.
type DashboardStats struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	PendingAmount     float64 `json:"pendingAmount"`
	TotalTransactions int     `json:"totalTransactions"`
	SuccessRate       float64 `json:"successRate"`
}
