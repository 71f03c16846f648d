package importer

import (
	"fmt"

	"github.com/casewright/casewright/internal/bpmn"
	"github.com/casewright/casewright/internal/ir"
)

// class is the classification of one process-level child during stage
// synthesis.
type class int

const (
	classSkip       class = iota // bookkeeping, never a step
	classTask                    // task-like, one Step
	classEvent                   // intermediate event, folded into the run
	classSubprocess              // stage boundary
)

// classify buckets one direct child of the process container. Start and
// end events are consumed separately, and sequence flows only feed the
// lookup tables.
func classify(el *bpmn.Element) class {
	switch el.Type {
	case "subProcess":
		return classSubprocess
	case "intermediateCatchEvent", "intermediateThrowEvent":
		return classEvent
	case "serviceTask", "scriptTask", "sendTask", "receiveTask",
		"businessRuleTask", "userTask", "manualTask", "task",
		"exclusiveGateway", "inclusiveGateway", "parallelGateway", "eventBasedGateway",
		"callActivity":
		return classTask
	default:
		return classSkip
	}
}

// synthesizeStages runs the classify-then-flush reducer over the
// container's direct children. Consecutive task-like and
// intermediate-event children buffer into a flat run; a subprocess child
// or the end of the list flushes the buffer into a synthetic stage, and
// the subprocess becomes a stage of its own.
func (b *builder) synthesizeStages(children []*bpmn.Element) []ir.Stage {
	var stages []ir.Stage
	var run []ir.Step

	flush := func() {
		if len(run) == 0 {
			return
		}
		b.stageSeq++
		name := run[0].Name
		if len(run) > 1 {
			name += " & more"
		}
		stages = append(stages, ir.Stage{
			ID:   fmt.Sprintf("stage_%d", b.stageSeq),
			Name: name,
			Groups: []ir.Group{{
				ID:    fmt.Sprintf("grp_%d", b.stageSeq),
				Name:  name,
				Steps: run,
			}},
		})
		run = nil
	}

	for _, child := range children {
		switch classify(child) {
		case classTask, classEvent:
			run = append(run, b.buildStep(child))
		case classSubprocess:
			flush()
			stages = append(stages, b.subprocessStage(child))
		}
	}
	flush()

	return stages
}

// subprocessStage turns one subprocess container into a stage holding its
// inner chain as a single group. Nested subprocesses inside it become
// foreach steps, not further stages.
func (b *builder) subprocessStage(sub *bpmn.Element) ir.Stage {
	b.sawSubprocess = true

	trace := &ir.SourceTrace{ElementID: sub.ID, ElementType: "subProcess"}
	if sub.MultiInstance != nil {
		trace.ElementType = "subProcess-multi"
	}

	b.captureStageEvents(sub)

	return ir.Stage{
		ID:    sub.ID,
		Name:  sub.Name,
		Trace: trace,
		Groups: []ir.Group{{
			ID:    sub.ID + "_grp",
			Name:  sub.Name,
			Steps: b.buildChain(sub.Children),
		}},
	}
}

// buildChain builds the ordered step sequence for a container's direct
// children. Nested subprocesses become foreach steps carrying their own
// chain as the loop body.
func (b *builder) buildChain(children []*bpmn.Element) []ir.Step {
	var steps []ir.Step
	for _, child := range children {
		switch classify(child) {
		case classTask, classEvent:
			steps = append(steps, b.buildStep(child))
		case classSubprocess:
			steps = append(steps, b.foreachStep(child))
		}
	}
	return steps
}

// foreachStep renders a nested subprocess as a foreach step wrapping its
// inner chain.
func (b *builder) foreachStep(sub *bpmn.Element) ir.Step {
	b.sawSubprocess = true
	b.captureStageEvents(sub)

	loop := &ir.Loop{Body: b.buildChain(sub.Children)}
	if mi := sub.MultiInstance; mi != nil {
		loop.Collection = mi.Collection
		loop.ElementVar = mi.ElementVariable
		loop.Sequential = mi.Sequential
	}

	return ir.Step{
		Kind:        ir.StepForEach,
		ID:          sub.ID,
		Name:        sub.Name,
		Description: sub.Documentation,
		Tech:        techFromElement(sub),
		Trace:       &ir.SourceTrace{ElementID: sub.ID, ElementType: "subProcess"},
		Loop:        loop,
	}
}

// captureStageEvents records a subprocess's inner start and end event ids
// so the exporter can re-emit them verbatim.
func (b *builder) captureStageEvents(sub *bpmn.Element) {
	var events ir.StageEvents
	if start := sub.FirstChild("startEvent"); start != nil {
		events.StartID = start.ID
	}
	if end := sub.FirstChild("endEvent"); end != nil {
		events.EndID = end.ID
	}
	if events.StartID != "" || events.EndID != "" {
		b.meta.StageEvents[sub.ID] = events
	}
}
