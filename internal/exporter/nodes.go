package exporter

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/casewright/casewright/internal/ir"
)

// stepItem renders one step to its BPMN element, boundary events included.
func (r *renderer) stepItem(step *ir.Step) chainItem {
	var node *xmlNode
	if step.Kind == ir.StepForEach {
		node = r.foreachNode(step)
	} else {
		node = r.stepNode(step)
	}

	item := chainItem{id: step.ID, node: node, step: step}
	for i, be := range step.Boundary {
		item.trailing = append(item.trailing, r.boundaryNode(step.ID, i, be))
	}
	return item
}

func (r *renderer) stepNode(step *ir.Step) *xmlNode {
	node := &xmlNode{
		XMLName:       xml.Name{Local: "bpmn:" + elementTypeFor(step)},
		ID:            step.ID,
		Name:          step.Name,
		Attrs:         techAttrs(step.Tech),
		Documentation: docText(step.Description),
		Extensions:    techExtensions(step.Tech),
	}

	switch step.Kind {
	case ir.StepCallActivity:
		if call := step.Call; call != nil {
			node.Attrs = setAttr(node.Attrs, "calledElement", call.CalledElement)
			node.Extensions = callExtensions(node.Extensions, call)
		}
	case ir.StepIntermediateEvent:
		if step.Event != nil {
			if def := r.eventDef(step.Event.Kind, step.Event.Expression); def != nil {
				node.Events = append(node.Events, def)
			}
		}
	}

	if step.Tech != nil && step.Tech.Script != "" {
		node.Script = &xmlText{Text: step.Tech.Script}
	}
	if step.Tech != nil && step.Tech.MultiInstance != nil {
		node.MultiInstance = taskMultiInstance(step.Tech.MultiInstance)
	}

	return node
}

// elementTypeFor picks the BPMN element name for a step: the captured
// original element type when it is compatible with the kind, else the
// kind's canonical element.
func elementTypeFor(step *ir.Step) string {
	traced := ""
	if step.Trace != nil {
		traced = step.Trace.ElementType
	}

	switch step.Kind {
	case ir.StepUser:
		if traced == "userTask" || traced == "manualTask" {
			return traced
		}
		return "userTask"
	case ir.StepDecision:
		if strings.HasSuffix(traced, "Gateway") && traced != "" {
			return traced
		}
		return "exclusiveGateway"
	case ir.StepCallActivity:
		return "callActivity"
	case ir.StepIntermediateEvent:
		if traced == "intermediateThrowEvent" {
			return traced
		}
		return "intermediateCatchEvent"
	default:
		switch traced {
		case "serviceTask", "scriptTask", "sendTask", "receiveTask", "businessRuleTask", "task":
			return traced
		}
		return "serviceTask"
	}
}

func (r *renderer) boundaryNode(stepID string, i int, be ir.BoundaryEvent) *xmlNode {
	id := be.ID
	if id == "" {
		id = fmt.Sprintf("Boundary_%s_%d", stepID, i+1)
	}
	node := &xmlNode{
		XMLName: xml.Name{Local: "bpmn:boundaryEvent"},
		ID:      id,
	}
	node.Attrs = setAttr(node.Attrs, "attachedToRef", stepID)
	if be.NonInterrupting {
		node.Attrs = setAttr(node.Attrs, "cancelActivity", "false")
	}
	if def := r.eventDef(be.Kind, be.Expression); def != nil {
		node.Events = append(node.Events, def)
	}
	return node
}

// startNode renders the trigger as the top-level start event.
func (r *renderer) startNode() *xmlNode {
	trigger := r.doc.Trigger
	node := &xmlNode{
		XMLName:    xml.Name{Local: "bpmn:startEvent"},
		ID:         r.startID(),
		Name:       trigger.Name,
		Attrs:      techAttrs(trigger.Tech),
		Extensions: techExtensions(trigger.Tech),
	}

	switch trigger.Kind {
	case ir.TriggerTimer:
		node.Events = append(node.Events, timerDef(trigger.Expression))
	case ir.TriggerMessage:
		node.Events = append(node.Events, r.refDef("message", "messageRef", r.messages.intern(trigger.Expression)))
	case ir.TriggerSignal:
		node.Events = append(node.Events, r.refDef("signal", "signalRef", r.signals.intern(trigger.Expression)))
	}
	return node
}

// endNode renders the end event.
func (r *renderer) endNode() *xmlNode {
	end := r.doc.End
	node := &xmlNode{
		XMLName:    xml.Name{Local: "bpmn:endEvent"},
		ID:         r.endID(),
		Name:       end.Name,
		Attrs:      techAttrs(end.Tech),
		Extensions: techExtensions(end.Tech),
	}

	switch end.Kind {
	case ir.EndTerminate:
		node.Events = append(node.Events, bareDef("terminate"))
	case ir.EndError:
		node.Events = append(node.Events, r.refDef("error", "errorRef", r.errs.intern(end.Expression)))
	case ir.EndMessage:
		node.Events = append(node.Events, r.refDef("message", "messageRef", r.messages.intern(end.Expression)))
	case ir.EndSignal:
		node.Events = append(node.Events, r.refDef("signal", "signalRef", r.signals.intern(end.Expression)))
	case ir.EndEscalation:
		node.Events = append(node.Events, bareDef("escalation"))
	case ir.EndCompensate:
		node.Events = append(node.Events, bareDef("compensate"))
	}
	return node
}

// eventDef renders one intermediate or boundary event definition.
func (r *renderer) eventDef(kind ir.EventKind, expression string) *xmlEventDef {
	switch kind {
	case ir.EventMessage:
		return r.refDef("message", "messageRef", r.messages.intern(expression))
	case ir.EventTimer:
		return timerDef(expression)
	case ir.EventSignal:
		return r.refDef("signal", "signalRef", r.signals.intern(expression))
	case ir.EventError:
		return r.refDef("error", "errorRef", r.errs.intern(expression))
	case ir.EventEscalation:
		def := bareDef("escalation")
		if expression != "" {
			def.Attrs = setAttr(def.Attrs, "escalationRef", expression)
		}
		return def
	default:
		return nil
	}
}

func bareDef(kind string) *xmlEventDef {
	return &xmlEventDef{XMLName: xml.Name{Local: "bpmn:" + kind + "EventDefinition"}}
}

func (r *renderer) refDef(kind, refAttr, refID string) *xmlEventDef {
	def := bareDef(kind)
	if refID != "" {
		def.Attrs = setAttr(def.Attrs, refAttr, refID)
	}
	return def
}

// timerDef picks the timer expression slot from the expression's shape:
// ISO-8601 repetitions are cycles, durations start with P, anything else
// is a date.
func timerDef(expression string) *xmlEventDef {
	def := bareDef("timer")
	text := &xmlText{Type: "bpmn:tFormalExpression", Text: expression}
	switch {
	case expression == "":
	case strings.HasPrefix(expression, "R"):
		def.TimeCycle = text
	case strings.HasPrefix(expression, "P"):
		def.TimeDuration = text
	default:
		def.TimeDate = text
	}
	return def
}

// techAttrs lifts the tech bag's attribute-shaped fields onto the element.
func techAttrs(t *ir.Tech) []xml.Attr {
	if t.IsZero() {
		return nil
	}
	var attrs []xml.Attr
	add := func(name, value string) {
		if value != "" {
			attrs = setAttr(attrs, name, value)
		}
	}

	if t.AsyncBefore {
		add("camunda:asyncBefore", "true")
	}
	if t.AsyncAfter {
		add("camunda:asyncAfter", "true")
	}
	add("camunda:jobPriority", t.JobPriority)
	add("camunda:taskPriority", t.TaskPriority)
	add("camunda:topic", t.Topic)
	add("camunda:class", t.Class)
	add("camunda:expression", t.Expression)
	add("camunda:delegateExpression", t.DelegateExpression)
	add("camunda:resultVariable", t.ResultVariable)
	add("scriptFormat", t.ScriptFormat)
	add("camunda:assignee", t.Assignee)
	add("camunda:candidateUsers", t.CandidateUsers)
	add("camunda:candidateGroups", t.CandidateGroups)
	add("camunda:dueDate", t.DueDate)
	add("camunda:followUpDate", t.FollowUpDate)
	add("camunda:formKey", t.FormKey)
	add("camunda:formRef", t.FormRef)
	add("camunda:formRefBinding", t.FormRefBinding)
	add("camunda:calledElementBinding", t.CalledElementBinding)
	add("camunda:calledElementVersion", t.CalledElementVersion)
	return attrs
}

// techExtensions renders the tech bag's input/output parameters. Nil when
// the bag carries none, so no empty extensionElements serialize.
func techExtensions(t *ir.Tech) *xmlExtensions {
	if t.IsZero() || (len(t.Inputs) == 0 && len(t.Outputs) == 0) {
		return nil
	}
	io := &xmlInputOutput{}
	for _, p := range t.Inputs {
		io.Inputs = append(io.Inputs, xmlParam{Name: p.Name, Text: p.Value})
	}
	for _, p := range t.Outputs {
		io.Outputs = append(io.Outputs, xmlParam{Name: p.Name, Text: p.Value})
	}
	return &xmlExtensions{IO: io}
}

// callExtensions adds in/out variable mappings, only when non-empty.
func callExtensions(ext *xmlExtensions, call *ir.Call) *xmlExtensions {
	if len(call.In) == 0 && len(call.Out) == 0 {
		return ext
	}
	if ext == nil {
		ext = &xmlExtensions{}
	}
	for _, m := range call.In {
		ext.In = append(ext.In, ioBinding(m))
	}
	for _, m := range call.Out {
		ext.Out = append(ext.Out, ioBinding(m))
	}
	return ext
}

func ioBinding(m ir.Mapping) xmlIOBinding {
	return xmlIOBinding{
		Source:           m.Source,
		SourceExpression: m.SourceExpression,
		Target:           m.Target,
		Variables:        m.Variables,
	}
}

func taskMultiInstance(mi *ir.MultiInstance) *xmlMultiInstance {
	out := &xmlMultiInstance{
		Collection: mi.Collection,
		ElementVar: mi.ElementVar,
	}
	if mi.Sequential {
		out.Sequential = "true"
	}
	if mi.CompletionCondition != "" {
		out.Completion = &xmlText{Type: "bpmn:tFormalExpression", Text: mi.CompletionCondition}
	}
	return out
}

// registry interns names to deterministic ids in first-use order.
type registry struct {
	prefix string
	ids    map[string]string
	order  []string
}

func newRegistry(prefix string) *registry {
	return &registry{prefix: prefix, ids: map[string]string{}}
}

// intern returns the id for a name, allocating one on first use. Empty
// names intern to "" so optional references stay absent.
func (g *registry) intern(name string) string {
	if name == "" {
		return ""
	}
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := fmt.Sprintf("%s_%d", g.prefix, len(g.order)+1)
	g.ids[name] = id
	g.order = append(g.order, name)
	return id
}

// named returns the interned definitions in first-use order.
func (g *registry) named(isError bool) []xmlNamed {
	var out []xmlNamed
	for _, name := range g.order {
		n := xmlNamed{ID: g.ids[name], Name: name}
		if isError {
			n.Code = name
		}
		out = append(out, n)
	}
	return out
}
