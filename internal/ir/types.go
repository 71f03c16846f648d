package ir

import "github.com/google/uuid"

// CaseIR is the root of the intermediate representation of one process
// document. The tree is created in one shot by the importer (or by
// NewCaseIR for a fresh document), mutated exclusively through the patch
// engine, and replaced wholesale on every successful edit.
type CaseIR struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`

	Trigger   Trigger `json:"trigger"`
	Stages    []Stage `json:"stages"`
	AltStages []Stage `json:"alt_stages,omitempty"` // alternative paths, separate id namespace

	End        EndEvent           `json:"end"`
	Properties *ProcessProperties `json:"properties,omitempty"`

	// Meta carries round-trip fidelity state only. Written by the importer,
	// read by the exporter, never consulted for semantics.
	Meta *Metadata `json:"meta,omitempty"`
}

// NewCaseIR creates a blank document with a fresh identifier, a manual
// trigger and a plain end event.
func NewCaseIR(name string) *CaseIR {
	return &CaseIR{
		ID:      "Case_" + uuid.NewString()[:8],
		Name:    name,
		Trigger: Trigger{Kind: TriggerManual},
		Stages:  []Stage{},
		End:     EndEvent{Kind: EndNone},
	}
}

// Stage is the top level of the inferred hierarchy. Stage identifiers are
// unique within their containing sequence (Stages and AltStages are
// separate namespaces).
type Stage struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Groups []Group      `json:"groups"`
	Trace  *SourceTrace `json:"trace,omitempty"`
	Accent string       `json:"accent,omitempty"` // visual accent, no semantics
}

// Group subdivides a Stage without introducing another document-level
// container. Imported documents always get a single implicit group per
// synthetic stage.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Steps []Step `json:"steps"`
}

// SourceTrace records where an IR node came from in the source document.
type SourceTrace struct {
	ElementID   string `json:"element_id"`
	ElementType string `json:"element_type"`
}

// StepKind discriminates the closed Step variant.
type StepKind string

const (
	StepAutomation        StepKind = "automation"
	StepUser              StepKind = "user"
	StepDecision          StepKind = "decision"
	StepForEach           StepKind = "foreach"
	StepCallActivity      StepKind = "call_activity"
	StepIntermediateEvent StepKind = "intermediate_event"
)

// StepKinds lists every valid step kind, for validation and exhaustive
// handling checks.
var StepKinds = []StepKind{
	StepAutomation,
	StepUser,
	StepDecision,
	StepForEach,
	StepCallActivity,
	StepIntermediateEvent,
}

// Step is one unit of work inside a Group. Kind selects exactly one of the
// variant payloads (Branches, Loop, Call, Event); automation and user steps
// carry none.
type Step struct {
	Kind StepKind `json:"kind"`
	ID   string   `json:"id"`
	Name string   `json:"name"`

	Description string          `json:"description,omitempty"`
	Tech        *Tech           `json:"tech,omitempty"`
	Trace       *SourceTrace    `json:"trace,omitempty"`
	Boundary    []BoundaryEvent `json:"boundary,omitempty"`

	Branches []Branch   `json:"branches,omitempty"` // decision only
	Loop     *Loop      `json:"loop,omitempty"`     // foreach only
	Call     *Call      `json:"call,omitempty"`     // call_activity only
	Event    *EventSpec `json:"event,omitempty"`    // intermediate_event only
}

// BranchDefault is the sentinel condition marking a branch as the gateway's
// default path. A default branch serializes without a condition expression.
const BranchDefault = "__default__"

// Branch is one outgoing path of a decision step.
type Branch struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"` // expression text, or BranchDefault
	Target    string `json:"target,omitempty"`    // explicit target element id
}

// IsDefault reports whether the branch is the gateway's default path.
func (b Branch) IsDefault() bool {
	return b.Condition == "" || b.Condition == BranchDefault
}

// Loop is the payload of a foreach step: a multi-instance body iterated
// over a collection.
type Loop struct {
	Collection string `json:"collection"`
	ElementVar string `json:"element_var"`
	Sequential bool   `json:"sequential,omitempty"`
	Body       []Step `json:"body"`
}

// Call is the payload of a call_activity step.
type Call struct {
	CalledElement string    `json:"called_element"`
	In            []Mapping `json:"in,omitempty"`
	Out           []Mapping `json:"out,omitempty"`
}

// Mapping is one camunda in/out variable mapping on a call activity.
// Exactly one of Source and SourceExpression is set; Variables carries the
// "all" marker when the mapping copies every variable.
type Mapping struct {
	Source           string `json:"source,omitempty"`
	SourceExpression string `json:"source_expression,omitempty"`
	Target           string `json:"target,omitempty"`
	Variables        string `json:"variables,omitempty"`
}

// EventKind classifies intermediate and boundary events.
type EventKind string

const (
	EventMessage    EventKind = "message"
	EventTimer      EventKind = "timer"
	EventSignal     EventKind = "signal"
	EventError      EventKind = "error"
	EventEscalation EventKind = "escalation"
	EventGeneric    EventKind = "generic"
)

// EventSpec is the payload of an intermediate_event step: the event
// sub-kind plus its associated expression (message name, timer duration or
// cycle, signal name, error code).
type EventSpec struct {
	Kind       EventKind `json:"kind"`
	Expression string    `json:"expression,omitempty"`
}

// TriggerKind classifies how a case starts.
type TriggerKind string

const (
	TriggerNone    TriggerKind = "none"
	TriggerTimer   TriggerKind = "timer"
	TriggerMessage TriggerKind = "message"
	TriggerSignal  TriggerKind = "signal"
	TriggerManual  TriggerKind = "manual"
)

// Trigger is the single start condition of a case.
type Trigger struct {
	Kind       TriggerKind  `json:"kind"`
	Expression string       `json:"expression,omitempty"`
	Name       string       `json:"name,omitempty"`
	Tech       *Tech        `json:"tech,omitempty"`
	Trace      *SourceTrace `json:"trace,omitempty"`
}

// EndKind classifies how a case terminates.
type EndKind string

const (
	EndNone       EndKind = "none"
	EndTerminate  EndKind = "terminate"
	EndError      EndKind = "error"
	EndMessage    EndKind = "message"
	EndSignal     EndKind = "signal"
	EndEscalation EndKind = "escalation"
	EndCompensate EndKind = "compensate"
)

// EndEvent is the single terminal event of a case.
type EndEvent struct {
	Kind       EndKind      `json:"kind"`
	Expression string       `json:"expression,omitempty"`
	Name       string       `json:"name,omitempty"`
	Tech       *Tech        `json:"tech,omitempty"`
	Trace      *SourceTrace `json:"trace,omitempty"`
}

// BoundaryEvent is an event attached to exactly one Step. The zero value of
// NonInterrupting keeps the BPMN default: boundary events interrupt.
type BoundaryEvent struct {
	ID              string    `json:"id,omitempty"`
	Kind            EventKind `json:"kind"`
	NonInterrupting bool      `json:"non_interrupting,omitempty"`
	Expression      string    `json:"expression,omitempty"`
}

// ProcessProperties carries process-level configuration that round-trips
// through import and export.
type ProcessProperties struct {
	Executable             bool   `json:"executable,omitempty"`
	HistoryTTL             string `json:"history_ttl,omitempty"`
	VersionTag             string `json:"version_tag,omitempty"`
	CandidateStarterGroups string `json:"candidate_starter_groups,omitempty"`
}

// Tech is the Camunda-7 property bag. It is the single place technical,
// non-visual execution semantics live, shared by Trigger, EndEvent,
// BoundaryEvent and every Step variant.
type Tech struct {
	AsyncBefore bool `json:"async_before,omitempty"`
	AsyncAfter  bool `json:"async_after,omitempty"`

	JobPriority  string `json:"job_priority,omitempty"`
	TaskPriority string `json:"task_priority,omitempty"`

	// Implementation. At most one of Topic, Class, Expression,
	// DelegateExpression, Script is meaningful per element.
	Topic              string `json:"topic,omitempty"`
	Class              string `json:"class,omitempty"`
	Expression         string `json:"expression,omitempty"`
	DelegateExpression string `json:"delegate_expression,omitempty"`
	ResultVariable     string `json:"result_variable,omitempty"`
	ScriptFormat       string `json:"script_format,omitempty"`
	Script             string `json:"script,omitempty"`

	// Assignment (user tasks).
	Assignee        string `json:"assignee,omitempty"`
	CandidateUsers  string `json:"candidate_users,omitempty"`
	CandidateGroups string `json:"candidate_groups,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	FollowUpDate    string `json:"follow_up_date,omitempty"`

	// Forms.
	FormKey        string `json:"form_key,omitempty"`
	FormRef        string `json:"form_ref,omitempty"`
	FormRefBinding string `json:"form_ref_binding,omitempty"`

	// Call activity binding.
	CalledElementBinding string `json:"called_element_binding,omitempty"`
	CalledElementVersion string `json:"called_element_version,omitempty"`

	Inputs  []Param `json:"inputs,omitempty"`
	Outputs []Param `json:"outputs,omitempty"`

	// MultiInstance holds task-level loop characteristics for steps that
	// are multi-instance without being foreach containers.
	MultiInstance *MultiInstance `json:"multi_instance,omitempty"`
}

// IsZero reports whether the bag carries no configuration at all.
func (t *Tech) IsZero() bool {
	return t == nil ||
		(!t.AsyncBefore && !t.AsyncAfter &&
			t.JobPriority == "" && t.TaskPriority == "" &&
			t.Topic == "" && t.Class == "" && t.Expression == "" &&
			t.DelegateExpression == "" && t.ResultVariable == "" &&
			t.ScriptFormat == "" && t.Script == "" &&
			t.Assignee == "" && t.CandidateUsers == "" && t.CandidateGroups == "" &&
			t.DueDate == "" && t.FollowUpDate == "" &&
			t.FormKey == "" && t.FormRef == "" && t.FormRefBinding == "" &&
			t.CalledElementBinding == "" && t.CalledElementVersion == "" &&
			len(t.Inputs) == 0 && len(t.Outputs) == 0 &&
			t.MultiInstance == nil)
}

// Param is one name/value input or output parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MultiInstance holds camunda multi-instance loop characteristics.
type MultiInstance struct {
	Sequential          bool   `json:"sequential,omitempty"`
	Collection          string `json:"collection,omitempty"`
	ElementVar          string `json:"element_var,omitempty"`
	CompletionCondition string `json:"completion_condition,omitempty"`
}
