package domain

// ComplianceStep is one of the five fixed onboarding sub-forms a merchant
// must complete before full dashboard access.
type ComplianceStep string

const (
	StepProfile          ComplianceStep = "profile"
	StepContact          ComplianceStep = "contact"
	StepOwner            ComplianceStep = "owner"
	StepAccount          ComplianceStep = "account"
	StepServiceAgreement ComplianceStep = "service-agreement"
)

// ComplianceSteps is the authoritative step sequence. Progress is always
// evaluated in this order, regardless of the order steps were completed in.
var ComplianceSteps = []ComplianceStep{
	StepProfile,
	StepContact,
	StepOwner,
	StepAccount,
	StepServiceAgreement,
}

// ParseComplianceStep validates a step name from a URL path.
func ParseComplianceStep(raw string) (ComplianceStep, bool) {
	for _, step := range ComplianceSteps {
		if string(step) == raw {
			return step, true
		}
	}
	return "", false
}

// StepCompleted reports whether the given step is marked complete on the
// merchant record.
func (m *Merchant) StepCompleted(step ComplianceStep) bool {
	switch step {
	case StepProfile:
		return m.ProfileCompleted
	case StepContact:
		return m.ContactCompleted
	case StepOwner:
		return m.OwnerCompleted
	case StepAccount:
		return m.AccountCompleted
	case StepServiceAgreement:
		return m.ServiceAgreementCompleted
	default:
		return false
	}
}

// ComplianceProgress is the derived onboarding state served to the
// dashboard.
type ComplianceProgress struct {
	CompletedSteps int             `json:"completed_steps"`
	TotalSteps     int             `json:"total_steps"`
	NextStep       *ComplianceStep `json:"next_step,omitempty"`
	Complete       bool            `json:"complete"`
}
