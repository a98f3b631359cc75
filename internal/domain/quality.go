package domain

// CheckStatus is the outcome of one quality check.
type CheckStatus string

// CheckStatus constants
const (
	CheckPass         CheckStatus = "PASS"
	CheckFail         CheckStatus = "FAIL"
	CheckAcknowledged CheckStatus = "ACKNOWLEDGED" // known property, analysis adapts
)

// QualityCheck is one row of the validation report.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Status    CheckStatus
	Details   string
}
