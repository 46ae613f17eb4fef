package engine

// Phase is the position of a run in the assembly state machine:
//
//	NotStarted -> ValidatingRequest -> Invalid
//	                                -> PerYearResolving -> PerYearRetrieving -> PerYearAssembling
//	                                   (repeated per cycle) -> CombiningYears -> Done
//
// Any failure after validation moves to Failed. Invalid, Failed and Done
// are terminal.
type Phase string

const (
	PhaseNotStarted        Phase = "NotStarted"
	PhaseValidatingRequest Phase = "ValidatingRequest"
	PhaseInvalid           Phase = "Invalid"
	PhaseResolving         Phase = "PerYearResolving"
	PhaseRetrieving        Phase = "PerYearRetrieving"
	PhaseAssembling        Phase = "PerYearAssembling"
	PhaseCombining         Phase = "CombiningYears"
	PhaseDone              Phase = "Done"
	PhaseFailed            Phase = "Failed"
)

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseInvalid || p == PhaseFailed || p == PhaseDone
}
