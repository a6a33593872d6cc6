package domain

import "time"

// Merchant represents one onboarded business account. There is exactly one
// row per authenticated user, keyed by UserID.
type Merchant struct {
	ID                        string     `json:"id"`
	UserID                    string     `json:"user_id"`
	BusinessName              *string    `json:"business_name,omitempty"`
	Email                     *string    `json:"email,omitempty"`
	PhoneNumber               *string    `json:"phone_number,omitempty"`
	Country                   *string    `json:"country,omitempty"`
	ProfileCompleted          bool       `json:"profile_completed"`
	ContactCompleted          bool       `json:"contact_completed"`
	OwnerCompleted            bool       `json:"owner_completed"`
	AccountCompleted          bool       `json:"account_completed"`
	ServiceAgreementCompleted bool       `json:"service_agreement_completed"`
	CompletedAt               *time.Time `json:"completed_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// SignupMetadata carries the optional profile fields captured at signup and
// echoed back by the auth service in the user's metadata.
type SignupMetadata struct {
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Country      string `json:"country"`
}
