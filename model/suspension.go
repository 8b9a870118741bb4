package model

import "time"

// Suspension types. A temporary suspension carries a revival due date; a
// permanent one freezes the notice until an officer lifts it.
const (
	SuspensionTemporary = "TS"
	SuspensionPermanent = "PS"
)

// Suspension reason codes.
const (
	ReasonVIPOneShot = "OLD" // VIP vehicle, single 21-day hold then permanent
	ReasonVIPLoop    = "CLV" // VIP vehicle, relooped at court-warning stages
	ReasonHST        = "HST" // historical vehicle records under review
	ReasonReduction  = "RED" // reduced offence amount offered
	ReasonPDP        = "PDP" // pending driver particulars review
	ReasonFP         = "FP"  // furnished particulars processing
)

// SourceOCMS marks suspensions raised by this system's own engines, as
// opposed to an upstream detection feed or an officer-facing channel.
const SourceOCMS = "OCMS"

// DefaultRevivalDays applies to reason codes without an explicit hold
// period.
const DefaultRevivalDays = 7

// revivalDays maps reason codes to their hold period before auto revival
// falls due.
var revivalDays = map[string]int{
	ReasonVIPOneShot: 21,
	ReasonPDP:        21,
}

// RevivalDaysFor returns the number of days a suspension with the given
// reason holds before it is due for revival.
func RevivalDaysFor(reason string) int {
	if d, ok := revivalDays[reason]; ok {
		return d
	}
	return DefaultRevivalDays
}

// Suspension is one suspension entry against a notice. A notice
// accumulates entries over its life; SrNo orders them. The entry with a
// zero RevivalDate is the active one.
type Suspension struct {
	NoticeNo     string    `json:"notice_no"`
	SrNo         int       `json:"sr_no"`
	Type         string    `json:"suspension_type"`
	ReasonCode   string    `json:"reason_code"`
	Remarks      string    `json:"remarks"`
	Source       string    `json:"source_system"`
	SuspendedAt  time.Time `json:"suspended_at"`
	RevivalDueAt time.Time `json:"revival_due_at"`
	RevivedAt    time.Time `json:"revived_at,omitempty"`
	CreatedBy    string    `json:"created_by"`
	UpdatedBy    string    `json:"updated_by"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the suspension is still in force.
func (s *Suspension) Active() bool {
	return s.RevivedAt.IsZero()
}

// DueForRevival reports whether a temporary suspension's hold period has
// lapsed as of the given time. Permanent suspensions are never due.
func (s *Suspension) DueForRevival(asOf time.Time) bool {
	if s.Type != SuspensionTemporary || !s.Active() {
		return false
	}
	return !s.RevivalDueAt.After(asOf)
}
