package exporter

import (
	"encoding/xml"
	"fmt"

	"github.com/casewright/casewright/internal/ir"
)

// renderer accumulates definition-level registries while the element tree
// is built. Message, signal and error references are interned on first
// use so repeated names share one definition.
type renderer struct {
	doc  *ir.CaseIR
	meta *ir.Metadata

	messages *registry
	signals  *registry
	errs     *registry
}

func newRenderer(doc *ir.CaseIR) *renderer {
	return &renderer{
		doc:      doc,
		meta:     doc.Meta,
		messages: newRegistry("Message"),
		signals:  newRegistry("Signal"),
		errs:     newRegistry("Error"),
	}
}

// chainItem is one rendered element awaiting its connecting flows.
type chainItem struct {
	id       string
	node     *xmlNode
	step     *ir.Step // nil for start, end and subprocess stages
	trailing []any    // boundary events emitted right after the flows
}

// process renders the whole process container: start event, stages in
// order, end event, then every sequence flow.
func (r *renderer) process() *xmlProcess {
	proc := &xmlProcess{
		ID:    r.doc.ID,
		Name:  r.doc.Name,
		Attrs: r.processAttrs(),
	}

	items := []chainItem{{id: r.startID(), node: r.startNode()}}
	for _, stage := range r.doc.Stages {
		items = append(items, r.stageItems(stage)...)
	}
	items = append(items, chainItem{id: r.endID(), node: r.endNode()})

	flows := r.connect(items, r.endID())

	// Alternative paths chain among themselves only; branch fallbacks still
	// resolve to the main end event.
	var altItems []chainItem
	for _, stage := range r.doc.AltStages {
		altItems = append(altItems, r.stageItems(stage)...)
	}
	flows = append(flows, r.connect(altItems, r.endID())...)

	for _, item := range append(items, altItems...) {
		proc.Nodes = append(proc.Nodes, item.node)
		proc.Nodes = append(proc.Nodes, item.trailing...)
	}
	for _, f := range flows {
		proc.Nodes = append(proc.Nodes, f)
	}
	return proc
}

// stageItems renders one stage: a subprocess stage becomes a single
// container item, anything else contributes one item per step.
func (r *renderer) stageItems(stage ir.Stage) []chainItem {
	if isSubprocessStage(stage) {
		return []chainItem{{id: stage.ID, node: r.subprocessNode(stage)}}
	}
	var items []chainItem
	for _, group := range stage.Groups {
		for i := range group.Steps {
			items = append(items, r.stepItem(&group.Steps[i]))
		}
	}
	return items
}

func isSubprocessStage(stage ir.Stage) bool {
	return stage.Trace != nil &&
		(stage.Trace.ElementType == "subProcess" || stage.Trace.ElementType == "subProcess-multi")
}

// subprocessNode renders a stage-level subprocess: its inner start, the
// steps of every group, its inner end, connected by the shared chain rule.
func (r *renderer) subprocessNode(stage ir.Stage) *xmlNode {
	node := &xmlNode{
		XMLName: xml.Name{Local: "bpmn:subProcess"},
		ID:      stage.ID,
		Name:    stage.Name,
	}
	if stage.Trace.ElementType == "subProcess-multi" {
		node.MultiInstance = &xmlMultiInstance{}
	}

	var steps []ir.Step
	for _, group := range stage.Groups {
		steps = append(steps, group.Steps...)
	}
	node.Children = r.innerChain(stage.ID, steps)
	return node
}

// foreachNode renders a foreach step as a multi-instance subprocess
// wrapping its body, built by the same inner chain renderer subprocess
// stages use.
func (r *renderer) foreachNode(step *ir.Step) *xmlNode {
	node := &xmlNode{
		XMLName:       xml.Name{Local: "bpmn:subProcess"},
		ID:            step.ID,
		Name:          step.Name,
		Attrs:         techAttrs(step.Tech),
		Documentation: docText(step.Description),
		Extensions:    techExtensions(step.Tech),
		MultiInstance: &xmlMultiInstance{},
	}
	if loop := step.Loop; loop != nil {
		if loop.Sequential {
			node.MultiInstance.Sequential = "true"
		}
		node.MultiInstance.Collection = loop.Collection
		node.MultiInstance.ElementVar = loop.ElementVar
		node.Children = r.innerChain(step.ID, loop.Body)
	} else {
		node.Children = r.innerChain(step.ID, nil)
	}
	return node
}

// innerChain renders start→steps→end inside a container, reusing captured
// inner event ids when metadata holds them.
func (r *renderer) innerChain(ownerID string, steps []ir.Step) []any {
	events := r.meta.StageEventIDs(ownerID)
	startID := events.StartID
	if startID == "" {
		startID = ownerID + "_start"
	}
	endID := events.EndID
	if endID == "" {
		endID = ownerID + "_end"
	}

	items := []chainItem{{id: startID, node: plainEvent("bpmn:startEvent", startID)}}
	for i := range steps {
		items = append(items, r.stepItem(&steps[i]))
	}
	items = append(items, chainItem{id: endID, node: plainEvent("bpmn:endEvent", endID)})

	flows := r.connect(items, endID)

	var children []any
	for _, item := range items {
		children = append(children, item.node)
		children = append(children, item.trailing...)
	}
	for _, f := range flows {
		children = append(children, f)
	}
	return children
}

func plainEvent(tag, id string) *xmlNode {
	return &xmlNode{XMLName: xml.Name{Local: tag}, ID: id}
}

// connect builds the sequence flows for a chain. Consecutive items are
// joined by one flow, except a decision step's outgoing edges come from
// its branches: explicit target first, next element second, the end event
// last.
func (r *renderer) connect(items []chainItem, endID string) []*xmlSequenceFlow {
	var flows []*xmlSequenceFlow
	for i, item := range items {
		next := ""
		if i+1 < len(items) {
			next = items[i+1].id
		}
		if next == "" && item.id == endID {
			break
		}

		if item.step != nil && item.step.Kind == ir.StepDecision {
			flows = append(flows, r.branchFlows(item, next, endID)...)
			continue
		}
		if next != "" {
			flows = append(flows, r.flow(item.id, next, nil))
		}
	}
	return flows
}

// branchFlows renders one sequence flow per branch of a decision step. The
// sentinel default branch serializes without a condition, and the gateway
// names it in its default attribute.
func (r *renderer) branchFlows(item chainItem, nextID, endID string) []*xmlSequenceFlow {
	var flows []*xmlSequenceFlow
	for _, branch := range item.step.Branches {
		target := branch.Target
		if target == "" {
			target = nextID
		}
		if target == "" {
			target = endID
		}

		var cond *xmlText
		if !branch.IsDefault() {
			cond = &xmlText{Type: "bpmn:tFormalExpression", Text: branch.Condition}
		}

		f := r.flow(item.id, target, cond)
		if branch.ID != "" {
			f.ID = branch.ID
		}
		f.Name = branch.Label

		if branch.IsDefault() && gatewayTakesDefault(item.node.XMLName.Local) {
			item.node.Attrs = setAttr(item.node.Attrs, "default", f.ID)
		}
		flows = append(flows, f)
	}
	return flows
}

// gatewayTakesDefault reports whether the gateway element admits a default
// flow attribute. Parallel and event-based gateways activate every outgoing
// flow, so BPMN defines no default for them.
func gatewayTakesDefault(local string) bool {
	return local == "bpmn:exclusiveGateway" || local == "bpmn:inclusiveGateway"
}

// flow builds one sequence flow, reusing the captured id for these
// endpoints when the imported document had one.
func (r *renderer) flow(source, target string, cond *xmlText) *xmlSequenceFlow {
	id := r.meta.FlowID(source, target)
	if id == "" {
		id = fmt.Sprintf("Flow_%s_%s", source, target)
	}
	return &xmlSequenceFlow{
		ID:        id,
		SourceRef: source,
		TargetRef: target,
		Condition: cond,
	}
}

func (r *renderer) startID() string {
	if r.meta != nil && r.meta.StartID != "" {
		return r.meta.StartID
	}
	return "StartEvent_1"
}

func (r *renderer) endID() string {
	if r.meta != nil && r.meta.EndID != "" {
		return r.meta.EndID
	}
	return "EndEvent_1"
}

func (r *renderer) processAttrs() []xml.Attr {
	var attrs []xml.Attr
	if props := r.doc.Properties; props != nil {
		if props.Executable {
			attrs = setAttr(attrs, "isExecutable", "true")
		}
		if props.HistoryTTL != "" {
			attrs = setAttr(attrs, "camunda:historyTimeToLive", props.HistoryTTL)
		}
		if props.VersionTag != "" {
			attrs = setAttr(attrs, "camunda:versionTag", props.VersionTag)
		}
		if props.CandidateStarterGroups != "" {
			attrs = setAttr(attrs, "camunda:candidateStarterGroups", props.CandidateStarterGroups)
		}
	}
	return attrs
}

// setAttr appends or replaces one attribute by literal name.
func setAttr(attrs []xml.Attr, name, value string) []xml.Attr {
	for i := range attrs {
		if attrs[i].Name.Local == name {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func docText(text string) *xmlText {
	if text == "" {
		return nil
	}
	return &xmlText{Text: text}
}
