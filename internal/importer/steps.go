package importer

import (
	"github.com/casewright/casewright/internal/bpmn"
	"github.com/casewright/casewright/internal/ir"
)

// buildStep maps one task-like or intermediate-event element to a Step.
func (b *builder) buildStep(el *bpmn.Element) ir.Step {
	step := ir.Step{
		ID:          el.ID,
		Name:        el.Name,
		Description: el.Documentation,
		Tech:        techFromElement(el),
		Trace:       &ir.SourceTrace{ElementID: el.ID, ElementType: el.Type},
	}

	switch el.Type {
	case "userTask", "manualTask":
		step.Kind = ir.StepUser
		b.taskCount++

	case "exclusiveGateway", "inclusiveGateway", "parallelGateway", "eventBasedGateway":
		step.Kind = ir.StepDecision
		step.Branches = b.branchesFor(el)

	case "callActivity":
		step.Kind = ir.StepCallActivity
		step.Call = callFor(el)
		b.taskCount++

	case "intermediateCatchEvent", "intermediateThrowEvent":
		step.Kind = ir.StepIntermediateEvent
		step.Event = b.eventSpecFor(el)

	default:
		step.Kind = ir.StepAutomation
		b.taskCount++
	}

	return step
}

// branchesFor resolves a gateway's outgoing flows into branches in document
// order. A flow without a condition expression, or the one the gateway
// names as its default, becomes the sentinel default branch.
func (b *builder) branchesFor(gw *bpmn.Element) []ir.Branch {
	var branches []ir.Branch
	for _, flow := range b.flowsBySource[gw.ID] {
		branch := ir.Branch{
			ID:     flow.ID,
			Label:  flow.Name,
			Target: flow.TargetRef,
		}
		if flow.Condition == "" || flow.ID == gw.Default {
			branch.Condition = ir.BranchDefault
		} else {
			branch.Condition = flow.Condition
		}
		branches = append(branches, branch)
	}
	return branches
}

func callFor(el *bpmn.Element) *ir.Call {
	call := &ir.Call{CalledElement: el.CalledElement}
	if el.Extensions == nil {
		return call
	}
	for _, in := range el.Extensions.In {
		call.In = append(call.In, mappingFrom(in))
	}
	for _, out := range el.Extensions.Out {
		call.Out = append(call.Out, mappingFrom(out))
	}
	return call
}

func mappingFrom(binding bpmn.IOBinding) ir.Mapping {
	return ir.Mapping{
		Source:           binding.Source,
		SourceExpression: binding.SourceExpression,
		Target:           binding.Target,
		Variables:        binding.Variables,
	}
}

// eventSpecFor classifies an intermediate event. An event without a
// recognized definition is generic.
func (b *builder) eventSpecFor(el *bpmn.Element) *ir.EventSpec {
	spec := &ir.EventSpec{Kind: ir.EventGeneric}
	for _, def := range el.Events {
		switch def.Kind {
		case "message":
			spec.Kind = ir.EventMessage
			spec.Expression = b.messageName(def.Ref)
		case "timer":
			spec.Kind = ir.EventTimer
			spec.Expression = def.TimerExpression()
		case "signal":
			spec.Kind = ir.EventSignal
			spec.Expression = b.signalName(def.Ref)
		case "error":
			spec.Kind = ir.EventError
			spec.Expression = b.errorCode(def.Ref)
		case "escalation":
			spec.Kind = ir.EventEscalation
			spec.Expression = def.Ref
		}
	}
	return spec
}

// attachBoundaryEvents walks every step (main flow, loop bodies included)
// and attaches the collected boundary events by their attachedToRef.
func (b *builder) attachBoundaryEvents(stages []ir.Stage) {
	if len(b.boundaries) == 0 {
		return
	}

	byTarget := map[string][]ir.BoundaryEvent{}
	for _, be := range b.boundaries {
		byTarget[be.AttachedToRef] = append(byTarget[be.AttachedToRef], b.boundaryEventFrom(be))
	}

	var walk func(steps []ir.Step)
	walk = func(steps []ir.Step) {
		for i := range steps {
			if events, ok := byTarget[steps[i].ID]; ok {
				steps[i].Boundary = events
			}
			if steps[i].Loop != nil {
				walk(steps[i].Loop.Body)
			}
		}
	}
	for si := range stages {
		for gi := range stages[si].Groups {
			walk(stages[si].Groups[gi].Steps)
		}
	}
}

func (b *builder) boundaryEventFrom(el *bpmn.Element) ir.BoundaryEvent {
	ev := ir.BoundaryEvent{
		ID:              el.ID,
		Kind:            ir.EventGeneric,
		NonInterrupting: el.CancelActivity == "false",
	}
	for _, def := range el.Events {
		switch def.Kind {
		case "message":
			ev.Kind = ir.EventMessage
			ev.Expression = b.messageName(def.Ref)
		case "timer":
			ev.Kind = ir.EventTimer
			ev.Expression = def.TimerExpression()
		case "signal":
			ev.Kind = ir.EventSignal
			ev.Expression = b.signalName(def.Ref)
		case "error":
			ev.Kind = ir.EventError
			ev.Expression = b.errorCode(def.Ref)
		case "escalation":
			ev.Kind = ir.EventEscalation
			ev.Expression = def.Ref
		}
	}
	return ev
}

// techFromElement lifts every recognized camunda attribute and extension
// payload off an element into the tech bag. Returns nil when nothing is
// set, so empty bags never serialize.
func techFromElement(el *bpmn.Element) *ir.Tech {
	t := &ir.Tech{
		AsyncBefore: el.CamundaAttr("asyncBefore") == "true",
		AsyncAfter:  el.CamundaAttr("asyncAfter") == "true",

		JobPriority:  el.CamundaAttr("jobPriority"),
		TaskPriority: el.CamundaAttr("taskPriority"),

		Topic:              el.CamundaAttr("topic"),
		Class:              el.CamundaAttr("class"),
		Expression:         el.CamundaAttr("expression"),
		DelegateExpression: el.CamundaAttr("delegateExpression"),
		ResultVariable:     el.CamundaAttr("resultVariable"),
		ScriptFormat:       el.Attr["scriptFormat"],
		Script:             el.ScriptBody,

		Assignee:        el.CamundaAttr("assignee"),
		CandidateUsers:  el.CamundaAttr("candidateUsers"),
		CandidateGroups: el.CamundaAttr("candidateGroups"),
		DueDate:         el.CamundaAttr("dueDate"),
		FollowUpDate:    el.CamundaAttr("followUpDate"),

		FormKey:        el.CamundaAttr("formKey"),
		FormRef:        el.CamundaAttr("formRef"),
		FormRefBinding: el.CamundaAttr("formRefBinding"),

		CalledElementBinding: el.CamundaAttr("calledElementBinding"),
		CalledElementVersion: el.CamundaAttr("calledElementVersion"),
	}

	if ext := el.Extensions; ext != nil {
		for _, p := range ext.Inputs {
			t.Inputs = append(t.Inputs, ir.Param{Name: p.Name, Value: p.Value})
		}
		for _, p := range ext.Outputs {
			t.Outputs = append(t.Outputs, ir.Param{Name: p.Name, Value: p.Value})
		}
	}

	// Task-level multi instance, for steps that are not foreach containers.
	if mi := el.MultiInstance; mi != nil && el.Type != "subProcess" {
		t.MultiInstance = &ir.MultiInstance{
			Sequential:          mi.Sequential,
			Collection:          mi.Collection,
			ElementVar:          mi.ElementVariable,
			CompletionCondition: mi.CompletionCondition,
		}
	}

	if t.IsZero() {
		return nil
	}
	return t
}
