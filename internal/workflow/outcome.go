package workflow

import "fmt"

// Outcome is the closed set of doorstep visit results.
type Outcome string

const (
	OutcomeWasntHome       Outcome = "WASNT_HOME"
	OutcomeConvertedToSale Outcome = "CONVERTED_TO_SALE"
	OutcomeFollowUpLater   Outcome = "FOLLOW_UP_LATER"
	OutcomeUnqualified     Outcome = "UNQUALIFIED"
)

func ParseOutcome(value string) (Outcome, error) {
	switch Outcome(value) {
	case OutcomeWasntHome, OutcomeConvertedToSale, OutcomeFollowUpLater, OutcomeUnqualified:
		return Outcome(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, value)
	}
}

// StepKind tags one step of the post-knock sequence. Steps are a flat
// enum driven by the table in StepsFor, not polymorphic objects.
type StepKind string

const (
	StepObjection StepKind = "OBJECTION"
	StepSchedule  StepKind = "SCHEDULE_FOLLOW_UP"
	StepConvert   StepKind = "CONVERT_TO_CUSTOMER"
	StepNote      StepKind = "NOTE"
	StepTrip      StepKind = "TRIP"
	StepDone      StepKind = "DONE"
)

// Skippable reports whether Skip is legal on this step kind.
func (k StepKind) Skippable() bool {
	return k == StepNote || k == StepTrip
}

// StepsFor computes the step sequence for an outcome. Pure; always ends in
// StepDone.
func StepsFor(outcome Outcome) []StepKind {
	switch outcome {
	case OutcomeWasntHome:
		return []StepKind{StepNote, StepTrip, StepDone}
	case OutcomeConvertedToSale:
		return []StepKind{StepConvert, StepNote, StepTrip, StepDone}
	case OutcomeFollowUpLater:
		return []StepKind{StepObjection, StepSchedule, StepNote, StepTrip, StepDone}
	default:
		return []StepKind{StepDone}
	}
}
