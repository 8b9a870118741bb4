package model

// Processing stages a notice moves through. The reminder/demand chain is
// driven by the stage scheduler; the earlier stages are set by intake and
// payment flows.
const (
	StageNPA = "NPA" // notice pending approval
	StageROV = "ROV" // registered owner vetting
	StageENA = "ENA" // enforcement notice awaiting
	StageRD1 = "RD1" // first reminder to owner
	StageRD2 = "RD2" // second reminder to owner
	StageRR3 = "RR3" // final reminder (court warning)
	StageDN1 = "DN1" // first demand to driver
	StageDN2 = "DN2" // second demand to driver
	StageDR3 = "DR3" // final demand (court warning), terminal
)

// StageTransition describes one hop of the reminder/demand chain.
type StageTransition struct {
	Next     string
	DueAfter int // days until the next transition falls due
}

// stageFlow is the reminder/demand chain. Each hop holds for 14 days
// before the scheduler moves the notice on. DR3 has no successor; court
// action takes over from there.
var stageFlow = map[string]StageTransition{
	StageRD1: {Next: StageRD2, DueAfter: 14},
	StageRD2: {Next: StageRR3, DueAfter: 14},
	StageRR3: {Next: StageDN1, DueAfter: 14},
	StageDN1: {Next: StageDN2, DueAfter: 14},
	StageDN2: {Next: StageDR3, DueAfter: 14},
}

// NextStage returns the stage that follows the given one and the number of
// days the notice stays there. ok is false for terminal or unknown stages.
func NextStage(stage string) (next string, dueAfterDays int, ok bool) {
	t, ok := stageFlow[stage]
	if !ok {
		return "", 0, false
	}
	return t.Next, t.DueAfter, true
}

// TerminalStage reports whether the stage has no successor in the
// reminder/demand chain.
func TerminalStage(stage string) bool {
	_, ok := stageFlow[stage]
	return !ok
}

// knownStages covers every stage a live notice can legitimately carry.
var knownStages = map[string]struct{}{
	StageNPA: {}, StageROV: {}, StageENA: {},
	StageRD1: {}, StageRD2: {}, StageRR3: {},
	StageDN1: {}, StageDN2: {}, StageDR3: {},
}

// KnownStage reports whether the stage code is one the system manages.
func KnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// furnishableStages are the stages at which an owner may furnish hirer or
// driver particulars. Outside these windows a furnish application is
// invalid.
var furnishableStages = map[string]struct{}{
	StageRD1: {}, StageRD2: {}, StageDN1: {}, StageDN2: {},
}

// FurnishableStage reports whether particulars may be furnished while the
// notice sits at the given stage.
func FurnishableStage(stage string) bool {
	_, ok := furnishableStages[stage]
	return ok
}

// courtWarningStages are the final reminder and final demand stages. VIP
// relooping and the stricter reduction rules key off these.
var courtWarningStages = map[string]struct{}{
	StageRR3: {}, StageDR3: {},
}

// CourtWarningStage reports whether the stage is a final reminder or final
// demand stage.
func CourtWarningStage(stage string) bool {
	_, ok := courtWarningStages[stage]
	return ok
}
