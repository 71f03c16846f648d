package ir

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299).
const (
	ErrDocMissingID      = "E200" // document id is required
	ErrDuplicateStageID  = "E201" // stage id reused within a sequence
	ErrPayloadMismatch   = "E202" // payload present that the kind does not carry
	ErrPayloadMissing    = "E203" // kind requires a payload that is absent
	ErrUnknownKind       = "E204" // unknown step/trigger/end/event kind
	ErrEmptyStepID       = "E205" // step id is required
	ErrDuplicateBranchID = "E206" // branch id reused within a decision
)

// ValidationError reports one structural invariant violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the document's structural invariants. It returns every
// violation found rather than failing fast. A nil result means the document
// is structurally sound; semantic checks (e.g. branch target resolution)
// belong to the exporter.
func Validate(doc *CaseIR) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(doc.ID) == "" {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: "document id is required",
			Code:    ErrDocMissingID,
		})
	}

	if !validTriggerKind(doc.Trigger.Kind) {
		errs = append(errs, ValidationError{
			Field:   "trigger.kind",
			Message: fmt.Sprintf("unknown trigger kind %q", doc.Trigger.Kind),
			Code:    ErrUnknownKind,
		})
	}
	if !validEndKind(doc.End.Kind) {
		errs = append(errs, ValidationError{
			Field:   "end.kind",
			Message: fmt.Sprintf("unknown end kind %q", doc.End.Kind),
			Code:    ErrUnknownKind,
		})
	}

	errs = append(errs, validateStages(doc.Stages, "stages")...)
	errs = append(errs, validateStages(doc.AltStages, "alt_stages")...)

	return errs
}

// validateStages checks stage id uniqueness within one sequence and
// recurses into steps. Main flow and alternative paths are separate
// namespaces, so each call gets its own seen set.
func validateStages(stages []Stage, field string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, stage := range stages {
		path := fmt.Sprintf("%s[%d]", field, i)
		if seen[stage.ID] {
			errs = append(errs, ValidationError{
				Field:   path + ".id",
				Message: fmt.Sprintf("duplicate stage id %q", stage.ID),
				Code:    ErrDuplicateStageID,
			})
		}
		seen[stage.ID] = true

		for j, group := range stage.Groups {
			for k, step := range group.Steps {
				stepPath := fmt.Sprintf("%s.groups[%d].steps[%d]", path, j, k)
				errs = append(errs, validateStep(step, stepPath)...)
			}
		}
	}
	return errs
}

func validateStep(step Step, path string) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(step.ID) == "" {
		errs = append(errs, ValidationError{
			Field:   path + ".id",
			Message: "step id is required",
			Code:    ErrEmptyStepID,
		})
	}

	// Exactly the payload the kind carries, nothing else.
	payloads := map[string]bool{
		"branches": len(step.Branches) > 0,
		"loop":     step.Loop != nil,
		"call":     step.Call != nil,
		"event":    step.Event != nil,
	}
	var want string
	switch step.Kind {
	case StepAutomation, StepUser:
		want = ""
	case StepDecision:
		want = "branches"
	case StepForEach:
		want = "loop"
	case StepCallActivity:
		want = "call"
	case StepIntermediateEvent:
		want = "event"
	default:
		errs = append(errs, ValidationError{
			Field:   path + ".kind",
			Message: fmt.Sprintf("unknown step kind %q", step.Kind),
			Code:    ErrUnknownKind,
		})
		return errs
	}

	for name, present := range payloads {
		if present && name != want {
			errs = append(errs, ValidationError{
				Field:   path + "." + name,
				Message: fmt.Sprintf("%s step must not carry %s", step.Kind, name),
				Code:    ErrPayloadMismatch,
			})
		}
	}
	// Branches are the one payload a kind may legitimately lack: a gateway
	// with no outgoing flows imports as a decision step with no branches.
	if want != "" && want != "branches" && !payloads[want] {
		errs = append(errs, ValidationError{
			Field:   path + "." + want,
			Message: fmt.Sprintf("%s step requires %s", step.Kind, want),
			Code:    ErrPayloadMissing,
		})
	}

	if step.Kind == StepDecision {
		seen := make(map[string]bool)
		for i, branch := range step.Branches {
			if seen[branch.ID] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.branches[%d].id", path, i),
					Message: fmt.Sprintf("duplicate branch id %q", branch.ID),
					Code:    ErrDuplicateBranchID,
				})
			}
			seen[branch.ID] = true
		}
	}

	if step.Kind == StepForEach && step.Loop != nil {
		for i, inner := range step.Loop.Body {
			errs = append(errs, validateStep(inner, fmt.Sprintf("%s.loop.body[%d]", path, i))...)
		}
	}

	for i, be := range step.Boundary {
		if !validEventKind(be.Kind) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.boundary[%d].kind", path, i),
				Message: fmt.Sprintf("unknown boundary event kind %q", be.Kind),
				Code:    ErrUnknownKind,
			})
		}
	}
	if step.Kind == StepIntermediateEvent && step.Event != nil && !validEventKind(step.Event.Kind) {
		errs = append(errs, ValidationError{
			Field:   path + ".event.kind",
			Message: fmt.Sprintf("unknown event kind %q", step.Event.Kind),
			Code:    ErrUnknownKind,
		})
	}

	return errs
}

func validTriggerKind(k TriggerKind) bool {
	switch k {
	case TriggerNone, TriggerTimer, TriggerMessage, TriggerSignal, TriggerManual:
		return true
	}
	return false
}

func validEndKind(k EndKind) bool {
	switch k {
	case EndNone, EndTerminate, EndError, EndMessage, EndSignal, EndEscalation, EndCompensate:
		return true
	}
	return false
}

func validEventKind(k EventKind) bool {
	switch k {
	case EventMessage, EventTimer, EventSignal, EventError, EventEscalation, EventGeneric:
		return true
	}
	return false
}
