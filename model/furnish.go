package model

import "time"

// Furnish application statuses.
const (
	FurnishSubmitted    = "S" // received from e-services, awaiting processing
	FurnishManualReview = "P" // parked for an officer's decision
	FurnishApproved     = "A"
	FurnishRejected     = "R"
)

// FurnishApplication is an owner's submission of hirer or driver
// particulars against a notice. Applications are captured on the internet
// store and pulled across for processing.
type FurnishApplication struct {
	ApplicationID string    `json:"application_id"`
	NoticeNo      string    `json:"notice_no"`
	Indicator     string    `json:"owner_driver_indicator"` // hirer or driver
	IDType        string    `json:"id_type"`
	IDNo          string    `json:"id_no"`
	Name          string    `json:"name"`
	AddressLine1  string    `json:"address_line_1"`
	AddressLine2  string    `json:"address_line_2"`
	PostalCode    string    `json:"postal_code"`
	Status        string    `json:"status"`
	RejectReason  string    `json:"reject_reason,omitempty"`
	NotifyEmail   string    `json:"notify_email,omitempty"`
	NotifyPhone   string    `json:"notify_phone,omitempty"`
	IsSync        string    `json:"is_sync"`
	SubmittedAt   time.Time `json:"submitted_at"`
	ProcessedAt   time.Time `json:"processed_at,omitempty"`
	ProcessedBy   string    `json:"processed_by,omitempty"`
}

// Open reports whether the application still awaits a decision.
func (f *FurnishApplication) Open() bool {
	return f.Status == FurnishSubmitted || f.Status == FurnishManualReview
}

// StageAfterApproval returns the processing stage a notice moves to once
// the furnished particulars are approved: hirer particulars restart the
// owner reminder chain, driver particulars restart the driver demand
// chain.
func (f *FurnishApplication) StageAfterApproval() string {
	if f.Indicator == IndicatorDriver {
		return StageDN2
	}
	return StageRD2
}
