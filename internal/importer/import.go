package importer

import (
	"path/filepath"
	"strings"

	"github.com/casewright/casewright/internal/bpmn"
	"github.com/casewright/casewright/internal/ir"
)

// Result is a successful import: the document plus any structural
// warnings.
type Result struct {
	Case     *ir.CaseIR
	Warnings []string
}

// Import parses BPMN document bytes into a Case IR instance. filename is
// optional and only used for naming and error messages. The input is never
// mutated.
func Import(data []byte, filename string) (*Result, error) {
	defs, err := bpmn.Parse(data)
	if err != nil {
		return nil, &ParseError{Code: ErrCodeMalformed, Message: err.Error(), Filename: filename}
	}
	if len(defs.Processes) == 0 {
		return nil, &ParseError{Code: ErrCodeNoProcess, Message: "document contains no process", Filename: filename}
	}
	proc := defs.Processes[0]

	b := newBuilder(defs)
	b.index(proc)

	doc := &ir.CaseIR{
		ID:   proc.ID,
		Name: documentName(proc, filename),
	}

	doc.Properties = parseProperties(proc)
	if doc.Properties != nil {
		doc.Version = doc.Properties.VersionTag
	}

	start := proc.FirstChild("startEvent")
	doc.Trigger = b.parseTrigger(start)

	end := proc.FirstChild("endEvent")
	doc.End = b.parseEnd(end)

	doc.Stages = b.synthesizeStages(proc.Children)
	b.attachBoundaryEvents(doc.Stages)

	doc.Meta = b.finishMetadata(start, end)

	var warnings []string
	if !b.sawSubprocess {
		warnings = append(warnings, WarnNoSubprocess)
	}
	if b.taskCount == 0 {
		warnings = append(warnings, WarnNoTasks)
	}

	return &Result{Case: doc, Warnings: warnings}, nil
}

func documentName(proc *bpmn.Element, filename string) string {
	if proc.Name != "" {
		return proc.Name
	}
	if filename != "" {
		base := filepath.Base(filename)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return proc.ID
}

func parseProperties(proc *bpmn.Element) *ir.ProcessProperties {
	props := &ir.ProcessProperties{
		Executable:             proc.Attr["isExecutable"] == "true",
		HistoryTTL:             proc.CamundaAttr("historyTimeToLive"),
		VersionTag:             proc.CamundaAttr("versionTag"),
		CandidateStarterGroups: proc.CamundaAttr("candidateStarterGroups"),
	}
	if !props.Executable && props.HistoryTTL == "" && props.VersionTag == "" && props.CandidateStarterGroups == "" {
		return nil
	}
	return props
}

// builder accumulates lookup tables and round-trip metadata over one
// import pass.
type builder struct {
	defs *bpmn.Definitions

	flows         map[string]*bpmn.Element   // sequence-flow id -> element
	flowsBySource map[string][]*bpmn.Element // source element id -> outgoing flows, document order
	messages      map[string]string          // message id -> display name
	signals       map[string]string
	errors        map[string]bpmn.Named

	boundaries []*bpmn.Element // boundary events anywhere in the tree

	meta *ir.Metadata

	stageSeq      int
	sawSubprocess bool
	taskCount     int
}

func newBuilder(defs *bpmn.Definitions) *builder {
	b := &builder{
		defs:          defs,
		flows:         map[string]*bpmn.Element{},
		flowsBySource: map[string][]*bpmn.Element{},
		messages:      map[string]string{},
		signals:       map[string]string{},
		errors:        map[string]bpmn.Named{},
		meta: &ir.Metadata{
			DiagramXML:  defs.DiagramXML,
			StageEvents: map[string]ir.StageEvents{},
		},
	}
	for _, m := range defs.Messages {
		b.messages[m.ID] = m.Name
	}
	for _, s := range defs.Signals {
		b.signals[s.ID] = s.Name
	}
	for _, e := range defs.Errors {
		b.errors[e.ID] = e
	}
	if len(defs.Attrs) > 0 {
		b.meta.DocAttrs = defs.Attrs
	}
	return b
}

// index scans the whole element tree once, building the sequence-flow
// lookup tables, capturing flow endpoints into metadata and collecting
// boundary events.
func (b *builder) index(el *bpmn.Element) {
	for _, child := range el.Children {
		switch child.Type {
		case "sequenceFlow":
			b.flows[child.ID] = child
			b.flowsBySource[child.SourceRef] = append(b.flowsBySource[child.SourceRef], child)
			b.meta.Flows = append(b.meta.Flows, ir.FlowRef{
				ID:     child.ID,
				Source: child.SourceRef,
				Target: child.TargetRef,
			})
		case "boundaryEvent":
			b.boundaries = append(b.boundaries, child)
		}
		b.index(child)
	}
}

func (b *builder) finishMetadata(start, end *bpmn.Element) *ir.Metadata {
	if start != nil {
		b.meta.StartID = start.ID
	}
	if end != nil {
		b.meta.EndID = end.ID
	}
	if len(b.meta.StageEvents) == 0 {
		b.meta.StageEvents = nil
	}
	return b.meta
}

// messageName resolves a message reference to its display name, falling
// back to the raw reference.
func (b *builder) messageName(ref string) string {
	if name, ok := b.messages[ref]; ok && name != "" {
		return name
	}
	return ref
}

func (b *builder) signalName(ref string) string {
	if name, ok := b.signals[ref]; ok && name != "" {
		return name
	}
	return ref
}

func (b *builder) errorCode(ref string) string {
	if e, ok := b.errors[ref]; ok {
		if e.Code != "" {
			return e.Code
		}
		if e.Name != "" {
			return e.Name
		}
	}
	return ref
}

// parseTrigger builds the Trigger from the first top-level start event.
// A document without one gets TriggerNone; a plain start event is manual.
func (b *builder) parseTrigger(start *bpmn.Element) ir.Trigger {
	if start == nil {
		return ir.Trigger{Kind: ir.TriggerNone}
	}

	trigger := ir.Trigger{
		Kind:  ir.TriggerManual,
		Name:  start.Name,
		Trace: &ir.SourceTrace{ElementID: start.ID, ElementType: "startEvent"},
	}

	for _, def := range start.Events {
		switch def.Kind {
		case "timer":
			trigger.Kind = ir.TriggerTimer
			trigger.Expression = def.TimerExpression()
		case "message":
			trigger.Kind = ir.TriggerMessage
			trigger.Expression = b.messageName(def.Ref)
		case "signal":
			trigger.Kind = ir.TriggerSignal
			trigger.Expression = b.signalName(def.Ref)
		}
	}

	trigger.Tech = techFromElement(start)
	return trigger
}

// parseEnd builds the EndEvent from the first top-level end event.
func (b *builder) parseEnd(end *bpmn.Element) ir.EndEvent {
	if end == nil {
		return ir.EndEvent{Kind: ir.EndNone}
	}

	ev := ir.EndEvent{
		Kind:  ir.EndNone,
		Name:  end.Name,
		Trace: &ir.SourceTrace{ElementID: end.ID, ElementType: "endEvent"},
	}

	for _, def := range end.Events {
		switch def.Kind {
		case "terminate":
			ev.Kind = ir.EndTerminate
		case "error":
			ev.Kind = ir.EndError
			ev.Expression = b.errorCode(def.Ref)
		case "message":
			ev.Kind = ir.EndMessage
			ev.Expression = b.messageName(def.Ref)
		case "signal":
			ev.Kind = ir.EndSignal
			ev.Expression = b.signalName(def.Ref)
		case "escalation":
			ev.Kind = ir.EndEscalation
		case "compensate":
			ev.Kind = ir.EndCompensate
		}
	}

	ev.Tech = techFromElement(end)
	return ev
}
