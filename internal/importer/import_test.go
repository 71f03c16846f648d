package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casewright/casewright/internal/ir"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func importOrder(t *testing.T) *Result {
	t.Helper()
	res, err := Import(loadFixture(t, "order.bpmn"), "order.bpmn")
	require.NoError(t, err)
	require.NotNil(t, res.Case)
	return res
}

func TestImportDocumentIdentity(t *testing.T) {
	res := importOrder(t)
	doc := res.Case

	assert.Equal(t, "Process_Order", doc.ID)
	assert.Equal(t, "Order Fulfilment", doc.Name)

	require.NotNil(t, doc.Properties)
	assert.True(t, doc.Properties.Executable)
	assert.Equal(t, "30", doc.Properties.HistoryTTL)
}

func TestImportTrigger(t *testing.T) {
	doc := importOrder(t).Case

	assert.Equal(t, ir.TriggerMessage, doc.Trigger.Kind)
	assert.Equal(t, "Order received", doc.Trigger.Name)

	// The message reference resolves to the display name.
	assert.Equal(t, "order.received", doc.Trigger.Expression)

	require.NotNil(t, doc.Trigger.Trace)
	assert.Equal(t, "StartEvent_1", doc.Trigger.Trace.ElementID)
}

func TestImportEndEvent(t *testing.T) {
	doc := importOrder(t).Case

	assert.Equal(t, ir.EndNone, doc.End.Kind)
	assert.Equal(t, "Done", doc.End.Name)
}

func TestImportSynthesizesStageFromTaskRun(t *testing.T) {
	doc := importOrder(t).Case
	require.Len(t, doc.Stages, 2)

	stage := doc.Stages[0]
	assert.Equal(t, "stage_1", stage.ID)
	assert.Equal(t, "Enrich order", stage.Name)
	require.Len(t, stage.Groups, 1)
	assert.Equal(t, "grp_1", stage.Groups[0].ID)

	require.Len(t, stage.Groups[0].Steps, 1)
	step := stage.Groups[0].Steps[0]
	assert.Equal(t, ir.StepAutomation, step.Kind)
	assert.Equal(t, "Task_Enrich", step.ID)
	assert.Equal(t, "Fetches customer data.", step.Description)

	require.NotNil(t, step.Tech)
	assert.Equal(t, "enrich-order", step.Tech.Topic)
	assert.True(t, step.Tech.AsyncBefore)
}

func TestImportSubprocessBecomesStage(t *testing.T) {
	doc := importOrder(t).Case
	require.Len(t, doc.Stages, 2)

	stage := doc.Stages[1]
	assert.Equal(t, "Sub_Review", stage.ID)
	assert.Equal(t, "Manual review", stage.Name)
	require.NotNil(t, stage.Trace)
	assert.Equal(t, "subProcess", stage.Trace.ElementType)

	require.Len(t, stage.Groups, 1)
	assert.Equal(t, "Sub_Review_grp", stage.Groups[0].ID)

	steps := stage.Groups[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, ir.StepUser, steps[0].Kind)
	assert.Equal(t, "Task_Check", steps[0].ID)
	require.NotNil(t, steps[0].Tech)
	assert.Equal(t, "clerk", steps[0].Tech.Assignee)

	assert.Equal(t, ir.StepUser, steps[1].Kind)
	require.NotNil(t, steps[1].Tech)
	assert.Equal(t, "managers", steps[1].Tech.CandidateGroups)
}

func TestImportCapturesMetadata(t *testing.T) {
	doc := importOrder(t).Case
	meta := doc.Meta
	require.NotNil(t, meta)

	assert.Equal(t, "StartEvent_1", meta.StartID)
	assert.Equal(t, "EndEvent_1", meta.EndID)

	events, ok := meta.StageEvents["Sub_Review"]
	require.True(t, ok)
	assert.Equal(t, "Sub_Review_Start", events.StartID)
	assert.Equal(t, "Sub_Review_End", events.EndID)

	assert.Len(t, meta.Flows, 6)
	assert.Equal(t, "Flow_2", meta.FlowID("Task_Enrich", "Sub_Review"))

	assert.Contains(t, meta.DiagramXML, "<bpmndi:BPMNDiagram")
	assert.Contains(t, meta.DiagramXML, "Task_Enrich_di")

	assert.Equal(t, "Definitions_Order", meta.DocAttrs["id"])
	assert.Equal(t, "Camunda Modeler", meta.DocAttrs["exporter"])
}

func TestImportIsDeterministic(t *testing.T) {
	a := importOrder(t).Case
	b := importOrder(t).Case
	assert.Equal(t, a, b)
}

func TestImportResultValidates(t *testing.T) {
	doc := importOrder(t).Case
	assert.Empty(t, ir.Validate(doc))
}

func TestImportNoWarningsOnFullDocument(t *testing.T) {
	assert.Empty(t, importOrder(t).Warnings)
}

func TestImportWarnsOnFlatDocument(t *testing.T) {
	flat := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="Flat">
    <bpmn:startEvent id="S1" />
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(flat), "flat.bpmn")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{WarnNoSubprocess, WarnNoTasks}, res.Warnings)
}

func TestImportMultiStepRunNamedAfterFirstStep(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="Intake">
    <bpmn:startEvent id="S1" />
    <bpmn:serviceTask id="T_A" name="Validate order" />
    <bpmn:serviceTask id="T_B" name="Reserve stock" />
    <bpmn:subProcess id="Sub_1" name="Fulfil">
      <bpmn:userTask id="U1" name="Pack" />
    </bpmn:subProcess>
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "intake.bpmn")
	require.NoError(t, err)
	require.Len(t, res.Case.Stages, 2)

	// A run of more than one element takes the first step's name with a
	// suffix, and the whole run lands in one group in document order.
	stage := res.Case.Stages[0]
	assert.Equal(t, "Validate order & more", stage.Name)
	require.Len(t, stage.Groups, 1)
	assert.Equal(t, "Validate order & more", stage.Groups[0].Name)

	steps := stage.Groups[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, "T_A", steps[0].ID)
	assert.Equal(t, "T_B", steps[1].ID)

	assert.Equal(t, "Sub_1", res.Case.Stages[1].ID)
}

func TestImportWarnsOnMissingSubprocessOnly(t *testing.T) {
	// Tasks without subprocess boundaries import into one synthetic stage
	// and report exactly the missing-subprocess warning.
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="OneStage">
    <bpmn:startEvent id="S1" />
    <bpmn:serviceTask id="T1" name="Work" />
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "onestage.bpmn")
	require.NoError(t, err)

	require.Len(t, res.Case.Stages, 1)
	assert.Equal(t, []string{WarnNoSubprocess}, res.Warnings)
}

func TestImportGatewayWithoutOutgoingFlows(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="DeadEnd">
    <bpmn:startEvent id="S1" />
    <bpmn:serviceTask id="T1" name="Work" />
    <bpmn:exclusiveGateway id="G1" name="Stranded?" />
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "deadend.bpmn")
	require.NoError(t, err)

	require.Len(t, res.Case.Stages, 1)
	steps := res.Case.Stages[0].Groups[0].Steps
	require.Len(t, steps, 2)

	gw := steps[1]
	assert.Equal(t, ir.StepDecision, gw.Kind)
	assert.Empty(t, gw.Branches)

	// A branchless decision is structurally sound, so patches against the
	// imported document stay applicable.
	assert.Empty(t, ir.Validate(res.Case))
}

func TestImportNameFallsBackToFilename(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1">
    <bpmn:startEvent id="S1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "flows/checkout.bpmn")
	require.NoError(t, err)
	assert.Equal(t, "checkout", res.Case.Name)
}

func TestImportNoProcess(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1" />`
	_, err := Import([]byte(doc), "empty.bpmn")
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeNoProcess, pe.Code)
	assert.Equal(t, "empty.bpmn", pe.Filename)
}

func TestImportMalformedInput(t *testing.T) {
	_, err := Import([]byte("not xml at all"), "junk.bpmn")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeMalformed, pe.Code)
}

func TestImportBoundaryEventAttachment(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="Guarded">
    <bpmn:startEvent id="S1" />
    <bpmn:serviceTask id="T1" name="Work" />
    <bpmn:boundaryEvent id="B1" attachedToRef="T1" cancelActivity="false">
      <bpmn:timerEventDefinition>
        <bpmn:timeDuration>PT10M</bpmn:timeDuration>
      </bpmn:timerEventDefinition>
    </bpmn:boundaryEvent>
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "guarded.bpmn")
	require.NoError(t, err)

	require.Len(t, res.Case.Stages, 1)
	step := res.Case.Stages[0].Groups[0].Steps[0]
	require.Len(t, step.Boundary, 1)

	be := step.Boundary[0]
	assert.Equal(t, "B1", be.ID)
	assert.Equal(t, ir.EventTimer, be.Kind)
	assert.Equal(t, "PT10M", be.Expression)
	assert.True(t, be.NonInterrupting)
}

func TestImportGatewayBranches(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" name="Routed">
    <bpmn:startEvent id="S1" />
    <bpmn:exclusiveGateway id="G1" name="Approved?" default="Flow_No" />
    <bpmn:serviceTask id="T_Yes" name="Ship" />
    <bpmn:serviceTask id="T_No" name="Reject" />
    <bpmn:endEvent id="E1" />
    <bpmn:sequenceFlow id="Flow_Yes" name="yes" sourceRef="G1" targetRef="T_Yes">
      <bpmn:conditionExpression>${approved}</bpmn:conditionExpression>
    </bpmn:sequenceFlow>
    <bpmn:sequenceFlow id="Flow_No" name="no" sourceRef="G1" targetRef="T_No" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "routed.bpmn")
	require.NoError(t, err)

	require.Len(t, res.Case.Stages, 1)
	steps := res.Case.Stages[0].Groups[0].Steps
	require.NotEmpty(t, steps)

	gw := steps[0]
	assert.Equal(t, ir.StepDecision, gw.Kind)
	require.Len(t, gw.Branches, 2)

	assert.Equal(t, "Flow_Yes", gw.Branches[0].ID)
	assert.Equal(t, "yes", gw.Branches[0].Label)
	assert.Equal(t, "T_Yes", gw.Branches[0].Target)
	assert.Equal(t, "${approved}", gw.Branches[0].Condition)
	assert.False(t, gw.Branches[0].IsDefault())

	assert.Equal(t, "Flow_No", gw.Branches[1].ID)
	assert.True(t, gw.Branches[1].IsDefault())
}

func TestImportNestedSubprocessBecomesForeach(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" xmlns:camunda="http://camunda.org/schema/1.0/bpmn" id="D1">
  <bpmn:process id="P1" name="Batch">
    <bpmn:startEvent id="S1" />
    <bpmn:subProcess id="Outer" name="Process items">
      <bpmn:startEvent id="Outer_Start" />
      <bpmn:subProcess id="Inner" name="Per item">
        <bpmn:serviceTask id="T_Item" name="Handle item" />
        <bpmn:multiInstanceLoopCharacteristics isSequential="true" camunda:collection="items" camunda:elementVariable="item" />
      </bpmn:subProcess>
      <bpmn:endEvent id="Outer_End" />
    </bpmn:subProcess>
    <bpmn:endEvent id="E1" />
  </bpmn:process>
</bpmn:definitions>`
	res, err := Import([]byte(doc), "batch.bpmn")
	require.NoError(t, err)

	require.Len(t, res.Case.Stages, 1)
	steps := res.Case.Stages[0].Groups[0].Steps
	require.Len(t, steps, 1)

	each := steps[0]
	assert.Equal(t, ir.StepForEach, each.Kind)
	assert.Equal(t, "Inner", each.ID)
	require.NotNil(t, each.Loop)
	assert.Equal(t, "items", each.Loop.Collection)
	assert.Equal(t, "item", each.Loop.ElementVar)
	assert.True(t, each.Loop.Sequential)
	require.Len(t, each.Loop.Body, 1)
	assert.Equal(t, "T_Item", each.Loop.Body[0].ID)
}
