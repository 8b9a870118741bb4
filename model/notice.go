package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SystemUserID is the application connection identity stamped on rows
	// created by scheduled jobs rather than an operator.
	SystemUserID = "ocmsiz_app_conn"

	SyncPending = "N"
	SyncDone    = "Y"
)

// Identity document types accepted on notices and furnish applications.
const (
	IDTypeNRIC     = "N"
	IDTypeFIN      = "F"
	IDTypeUEN      = "U"
	IDTypePassport = "P"
)

// Owner/driver indicator values on particulars records.
const (
	IndicatorOwner  = "O"
	IndicatorHirer  = "H"
	IndicatorDriver = "D"
)

// Notice is an offence notice issued against a vehicle. It is mastered on
// the intranet store and replicated to the internet store for public
// e-services.
type Notice struct {
	NoticeNo           string          `json:"notice_no"`
	VehicleNo          string          `json:"vehicle_no"`
	RuleCode           string          `json:"rule_code"`
	OffenceDate        time.Time       `json:"offence_date"`
	AmountPayable      decimal.Decimal `json:"amount_payable"`
	ProcessingStage    string          `json:"processing_stage"`
	NextProcessingDate time.Time       `json:"next_processing_date"`
	LastProcessingDate time.Time       `json:"last_processing_date"`
	SuspensionType     string          `json:"suspension_type"`
	IsSync             string          `json:"is_sync"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedBy          string          `json:"updated_by"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Suspended reports whether the notice currently carries any suspension.
// A suspended notice is frozen: stage advancement and payment processing
// skip it until it is revived.
func (n *Notice) Suspended() bool {
	return n.SuspensionType != ""
}

// OwnerDriver is a particulars record attached to a notice: the registered
// owner plus any hirer or driver furnished later. At most one record per
// notice is the current offender.
type OwnerDriver struct {
	NoticeNo        string    `json:"notice_no"`
	Indicator       string    `json:"owner_driver_indicator"`
	IDType          string    `json:"id_type"`
	IDNo            string    `json:"id_no"`
	Name            string    `json:"name"`
	AddressLine1    string    `json:"address_line_1"`
	AddressLine2    string    `json:"address_line_2"`
	PostalCode      string    `json:"postal_code"`
	CurrentOffender string    `json:"current_offender"`
	IsSync          string    `json:"is_sync"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// VIPVehicle flags a vehicle for special handling: notices against it are
// suspended on creation and relooped through court-warning stages instead
// of progressing to enforcement.
type VIPVehicle struct {
	VehicleNo string    `json:"vehicle_no"`
	Remarks   string    `json:"remarks"`
	CreatedAt time.Time `json:"created_at"`
}
