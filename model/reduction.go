package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReductionIDPrefix derives a reduction record id from its receipt number,
// so a replayed payment receipt maps back to the same record.
const ReductionIDPrefix = "RED"

// reductionRuleCodes are offence rules whose composition amount may be
// reduced at any managed stage. All other rules only qualify once the
// notice reaches a court-warning stage.
var reductionRuleCodes = map[string]struct{}{
	"30305": {},
	"31302": {},
	"30302": {},
	"21300": {},
}

// ReductionEligible reports whether a notice with the given rule code and
// processing stage qualifies for a reduced offence amount.
func ReductionEligible(ruleCode, stage string) bool {
	if !KnownStage(stage) {
		return false
	}
	if _, ok := reductionRuleCodes[ruleCode]; ok {
		return true
	}
	return CourtWarningStage(stage)
}

// ReductionID returns the record id for the given receipt number.
func ReductionID(receiptNo string) string {
	return fmt.Sprintf("%s%s", ReductionIDPrefix, receiptNo)
}

// Reduction records a reduced offence amount offered against a notice.
// SrNo is shared with the companion suspension entry created in the same
// unit of work. Rows are append-only history; the notice's payable amount
// is restated from NewAmountPayable when the row lands.
type Reduction struct {
	ReductionID      string          `json:"reduction_id"`
	NoticeNo         string          `json:"notice_no"`
	SrNo             int             `json:"sr_no"`
	ReceiptNo        string          `json:"receipt_no"`
	ReductionDate    time.Time       `json:"reduction_date"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	AmountReduced    decimal.Decimal `json:"amount_reduced"`
	NewAmountPayable decimal.Decimal `json:"new_amount_payable"`
	Reason           string          `json:"reason"`
	ExpiryDate       time.Time       `json:"expiry_date,omitempty"`
	SuspensionSource string          `json:"suspension_source"`
	ApprovedBy       string          `json:"approved_by"`
	CreatedAt        time.Time       `json:"created_at"`
}
