package exporter

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/casewright/casewright/internal/bpmn"
	"github.com/casewright/casewright/internal/ir"
)

// Export serializes a document to BPMN bytes. The input is never mutated.
// An internally inconsistent document fails with an InconsistencyError
// before any serialization work happens.
func Export(doc *ir.CaseIR) ([]byte, error) {
	if err := checkConsistency(doc); err != nil {
		return nil, err
	}

	r := newRenderer(doc)
	proc := r.process()

	defs := &xmlDefinitions{
		Attrs:    r.docAttrs(),
		Messages: r.messages.named(false),
		Signals:  r.signals.named(false),
		Errors:   r.errs.named(true),
		Process:  proc,
	}

	if r.meta != nil && r.meta.DiagramXML != "" {
		defs.DiagramRaw = "\n  " + r.meta.DiagramXML
	} else {
		defs.DiagramRaw = "\n  " + autoLayout(doc.ID, proc)
	}

	out, err := xml.MarshalIndent(defs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// docAttrs rebuilds the definitions element's attributes: captured
// originals overlaid on defaults, with the namespace prefixes the emitted
// tags rely on forced to their URIs. Deterministic order: the well-known
// attributes first, everything else sorted.
func (r *renderer) docAttrs() []xml.Attr {
	attrs := map[string]string{
		"id":              "Definitions_1",
		"targetNamespace": "http://bpmn.io/schema/bpmn",
	}
	if r.meta != nil {
		for k, v := range r.meta.DocAttrs {
			attrs[k] = v
		}
	}
	attrs["xmlns:bpmn"] = bpmn.NSModel
	attrs["xmlns:bpmndi"] = bpmn.NSDI
	attrs["xmlns:dc"] = bpmn.NSDC
	attrs["xmlns:di"] = bpmn.NSDIBase
	attrs["xmlns:camunda"] = bpmn.NSCamunda
	attrs["xmlns:xsi"] = bpmn.NSXSI

	head := []string{
		"xmlns:bpmn", "xmlns:bpmndi", "xmlns:dc", "xmlns:di",
		"xmlns:camunda", "xmlns:xsi", "id", "targetNamespace",
	}
	isHead := map[string]bool{}
	for _, k := range head {
		isHead[k] = true
	}

	var rest []string
	for k := range attrs {
		if !isHead[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	var out []xml.Attr
	for _, k := range append(head, rest...) {
		if v, ok := attrs[k]; ok {
			out = append(out, xml.Attr{Name: xml.Name{Local: k}, Value: v})
		}
	}
	return out
}

// checkConsistency is the pre-serialization gate. It collects every
// element id the document will serialize, rejects duplicates, and verifies
// that each explicit decision branch target resolves to one of them.
func checkConsistency(doc *ir.CaseIR) error {
	known := map[string]string{} // id -> path of first definition

	record := func(id, path string) *InconsistencyError {
		if id == "" {
			return nil
		}
		if prev, ok := known[id]; ok {
			return &InconsistencyError{
				Code:    ErrCodeDuplicateID,
				Path:    path,
				Message: fmt.Sprintf("id %q already used at %s", id, prev),
			}
		}
		known[id] = path
		return nil
	}

	var walkSteps func(steps []ir.Step, path string) *InconsistencyError
	walkSteps = func(steps []ir.Step, path string) *InconsistencyError {
		for i := range steps {
			step := &steps[i]
			p := fmt.Sprintf("%s/%d", path, i)
			if err := record(step.ID, p); err != nil {
				return err
			}
			for bi, be := range step.Boundary {
				if err := record(be.ID, fmt.Sprintf("%s/boundary/%d", p, bi)); err != nil {
					return err
				}
			}
			if step.Loop != nil {
				if err := walkSteps(step.Loop.Body, p+"/loop/body"); err != nil {
					return err
				}
			}
		}
		return nil
	}

	walkStages := func(stages []ir.Stage, path string) *InconsistencyError {
		for si := range stages {
			stage := &stages[si]
			p := fmt.Sprintf("%s/%d", path, si)
			if isSubprocessStage(*stage) {
				if err := record(stage.ID, p); err != nil {
					return err
				}
			}
			for gi := range stage.Groups {
				gp := fmt.Sprintf("%s/groups/%d/steps", p, gi)
				if err := walkSteps(stage.Groups[gi].Steps, gp); err != nil {
					return err
				}
			}
		}
		return nil
	}

	startID, endID := "StartEvent_1", "EndEvent_1"
	if doc.Meta != nil {
		if doc.Meta.StartID != "" {
			startID = doc.Meta.StartID
		}
		if doc.Meta.EndID != "" {
			endID = doc.Meta.EndID
		}
	}
	if err := record(startID, "/trigger"); err != nil {
		return err
	}
	if err := record(endID, "/end"); err != nil {
		return err
	}
	if err := walkStages(doc.Stages, "/stages"); err != nil {
		return err
	}
	if err := walkStages(doc.AltStages, "/alt_stages"); err != nil {
		return err
	}

	// Explicit branch targets must land on a known element; branches
	// without one fall through to the next element or the end event.
	var checkSteps func(steps []ir.Step, path string) *InconsistencyError
	checkSteps = func(steps []ir.Step, path string) *InconsistencyError {
		for i := range steps {
			step := &steps[i]
			p := fmt.Sprintf("%s/%d", path, i)
			for bi, branch := range step.Branches {
				if branch.Target == "" {
					continue
				}
				if _, ok := known[branch.Target]; !ok {
					return &InconsistencyError{
						Code:    ErrCodeBranchTarget,
						Path:    fmt.Sprintf("%s/branches/%d", p, bi),
						Message: fmt.Sprintf("branch target %q resolves to no known element", branch.Target),
					}
				}
			}
			if step.Loop != nil {
				if err := checkSteps(step.Loop.Body, p+"/loop/body"); err != nil {
					return err
				}
			}
		}
		return nil
	}
	checkStages := func(stages []ir.Stage, path string) *InconsistencyError {
		for si := range stages {
			for gi := range stages[si].Groups {
				gp := fmt.Sprintf("%s/%d/groups/%d/steps", path, si, gi)
				if err := checkSteps(stages[si].Groups[gi].Steps, gp); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := checkStages(doc.Stages, "/stages"); err != nil {
		return err
	}
	if err := checkStages(doc.AltStages, "/alt_stages"); err != nil {
		return err
	}
	return nil
}
