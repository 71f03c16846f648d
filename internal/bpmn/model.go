package bpmn

// BPMN and Camunda namespace URIs.
const (
	NSModel   = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	NSCamunda = "http://camunda.org/schema/1.0/bpmn"
	NSDI      = "http://www.omg.org/spec/BPMN/20100524/DI"
	NSDC      = "http://www.omg.org/spec/DD/20100524/DC"
	NSDIBase  = "http://www.omg.org/spec/DD/20100524/DI"
	NSXSI     = "http://www.w3.org/2001/XMLSchema-instance"
)

// Definitions is the parsed document root.
type Definitions struct {
	// Attrs holds the definitions element's own attributes (id,
	// targetNamespace, exporter, exporterVersion, ...) keyed by qualified
	// name as written.
	Attrs map[string]string

	Processes []*Element // process containers, usually one
	Messages  []Named
	Signals   []Named
	Errors    []Named

	// DiagramXML is the raw bytes of the first bpmndi:BPMNDiagram block,
	// captured verbatim for round-trip re-emission. Empty when the
	// document carries no diagram.
	DiagramXML string
}

// Named is a referencable definition with an id and display name
// (message, signal, error).
type Named struct {
	ID   string
	Name string
	Code string // errorCode, for error definitions
}

// Element is one BPMN element. Type is the element's local name
// (startEvent, serviceTask, subProcess, sequenceFlow, ...). Children keeps
// nested flow elements in document order for containers (process,
// subProcess).
type Element struct {
	Type string
	ID   string
	Name string

	// Attr holds every attribute, keyed by local name for the null
	// namespace and "camunda:<local>" for Camunda extension attributes.
	Attr map[string]string

	// Sequence flow endpoints and condition.
	SourceRef string
	TargetRef string
	Condition string

	// Gateway default-flow reference.
	Default string

	// Boundary event attachment.
	AttachedToRef  string
	CancelActivity string // "" means the BPMN default (interrupting)

	CalledElement string
	Documentation string
	ScriptBody    string // script task body text

	Events        []EventDefinition
	MultiInstance *MultiInstance
	Extensions    *Extensions

	Children []*Element
}

// CamundaAttr returns the value of a camunda-namespaced attribute by local
// name, or "".
func (e *Element) CamundaAttr(local string) string {
	return e.Attr["camunda:"+local]
}

// ChildrenByType returns the direct children with the given local name, in
// document order.
func (e *Element) ChildrenByType(elementType string) []*Element {
	var out []*Element
	for _, child := range e.Children {
		if child.Type == elementType {
			out = append(out, child)
		}
	}
	return out
}

// FirstChild returns the first direct child with the given local name, or
// nil.
func (e *Element) FirstChild(elementType string) *Element {
	for _, child := range e.Children {
		if child.Type == elementType {
			return child
		}
	}
	return nil
}

// EventDefinition records one event definition child
// (messageEventDefinition, timerEventDefinition, ...).
type EventDefinition struct {
	Kind string // message, timer, signal, error, escalation, terminate, compensate
	Ref  string // messageRef / signalRef / errorRef / escalationRef

	// Timer expressions; at most one is set.
	TimeCycle    string
	TimeDate     string
	TimeDuration string
}

// TimerExpression returns the timer expression by the cycle, date,
// duration priority order.
func (d EventDefinition) TimerExpression() string {
	switch {
	case d.TimeCycle != "":
		return d.TimeCycle
	case d.TimeDate != "":
		return d.TimeDate
	default:
		return d.TimeDuration
	}
}

// MultiInstance records multiInstanceLoopCharacteristics.
type MultiInstance struct {
	Sequential          bool
	Collection          string
	ElementVariable     string
	CompletionCondition string
}

// Extensions records the camunda extensionElements payload the importer
// understands: input/output parameters and call-activity variable
// mappings.
type Extensions struct {
	Inputs  []Param
	Outputs []Param
	In      []IOBinding
	Out     []IOBinding
}

// Param is one camunda:inputParameter / outputParameter.
type Param struct {
	Name  string
	Value string
}

// IOBinding is one camunda:in / camunda:out mapping on a call activity.
type IOBinding struct {
	Source           string
	SourceExpression string
	Target           string
	Variables        string
}

// IsFlowNode reports whether a local element name denotes a flow node the
// importer cares about (as opposed to bookkeeping like laneSet or
// dataObject).
func IsFlowNode(elementType string) bool {
	switch elementType {
	case "startEvent", "endEvent", "boundaryEvent",
		"intermediateCatchEvent", "intermediateThrowEvent",
		"serviceTask", "scriptTask", "sendTask", "receiveTask",
		"businessRuleTask", "userTask", "manualTask", "task",
		"exclusiveGateway", "inclusiveGateway", "parallelGateway", "eventBasedGateway",
		"callActivity", "subProcess", "sequenceFlow":
		return true
	}
	return false
}
