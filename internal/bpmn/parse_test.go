package bpmn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"
    xmlns:bpmndi="http://www.omg.org/spec/BPMN/20100524/DI"
    xmlns:camunda="http://camunda.org/schema/1.0/bpmn"
    id="Definitions_1" targetNamespace="http://bpmn.io/schema/bpmn"
    exporter="Camunda Modeler" exporterVersion="5.0.0">
  <bpmn:message id="Message_1" name="order.received" />
  <bpmn:error id="Error_1" name="PaymentFailed" errorCode="PAY-42" />
  <bpmn:process id="Process_1" name="Sample" isExecutable="true" camunda:historyTimeToLive="30">
    <bpmn:startEvent id="Start_1" name="Go">
      <bpmn:messageEventDefinition id="MED_1" messageRef="Message_1" />
    </bpmn:startEvent>
    <bpmn:serviceTask id="Task_1" name="Do work" camunda:topic="work" camunda:asyncBefore="true">
      <bpmn:documentation>Does the work.</bpmn:documentation>
      <bpmn:extensionElements>
        <camunda:inputOutput>
          <camunda:inputParameter name="mode">fast</camunda:inputParameter>
          <camunda:outputParameter name="result">${out}</camunda:outputParameter>
        </camunda:inputOutput>
      </bpmn:extensionElements>
    </bpmn:serviceTask>
    <bpmn:scriptTask id="Script_1" scriptFormat="javascript">
      <bpmn:script>
        return 1;
      </bpmn:script>
    </bpmn:scriptTask>
    <bpmn:exclusiveGateway id="Gate_1" default="Flow_3" />
    <bpmn:sequenceFlow id="Flow_1" sourceRef="Start_1" targetRef="Task_1" />
    <bpmn:sequenceFlow id="Flow_2" sourceRef="Gate_1" targetRef="End_1">
      <bpmn:conditionExpression xsi:type="bpmn:tFormalExpression" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
        ${approved}
      </bpmn:conditionExpression>
    </bpmn:sequenceFlow>
    <bpmn:subProcess id="Sub_1" name="Inner">
      <bpmn:startEvent id="Sub_1_Start" />
      <bpmn:userTask id="Task_2" camunda:assignee="clerk" />
      <bpmn:endEvent id="Sub_1_End" />
      <bpmn:multiInstanceLoopCharacteristics isSequential="true" camunda:collection="items" camunda:elementVariable="item">
        <bpmn:completionCondition>${done}</bpmn:completionCondition>
      </bpmn:multiInstanceLoopCharacteristics>
    </bpmn:subProcess>
    <bpmn:boundaryEvent id="Bound_1" attachedToRef="Task_1" cancelActivity="false">
      <bpmn:timerEventDefinition>
        <bpmn:timeDuration>PT5M</bpmn:timeDuration>
      </bpmn:timerEventDefinition>
    </bpmn:boundaryEvent>
    <bpmn:endEvent id="End_1" name="Done" />
  </bpmn:process>
  <bpmndi:BPMNDiagram id="Diagram_1">
    <bpmndi:BPMNPlane id="Plane_1" bpmnElement="Process_1" />
  </bpmndi:BPMNDiagram>
</bpmn:definitions>
`

func TestParseDocument(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "Definitions_1", defs.Attrs["id"])
	assert.Equal(t, "Camunda Modeler", defs.Attrs["exporter"])
	assert.Equal(t, "http://www.omg.org/spec/BPMN/20100524/MODEL", defs.Attrs["xmlns:bpmn"])

	require.Len(t, defs.Messages, 1)
	assert.Equal(t, "order.received", defs.Messages[0].Name)
	require.Len(t, defs.Errors, 1)
	assert.Equal(t, "PAY-42", defs.Errors[0].Code)

	require.Len(t, defs.Processes, 1)
	proc := defs.Processes[0]
	assert.Equal(t, "Process_1", proc.ID)
	assert.Equal(t, "Sample", proc.Name)
	assert.Equal(t, "30", proc.CamundaAttr("historyTimeToLive"))
}

func TestParsePreservesDocumentOrder(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	proc := defs.Processes[0]
	var types []string
	for _, child := range proc.Children {
		types = append(types, child.Type)
	}
	assert.Equal(t, []string{
		"startEvent", "serviceTask", "scriptTask", "exclusiveGateway",
		"sequenceFlow", "sequenceFlow", "subProcess", "boundaryEvent", "endEvent",
	}, types)
}

func TestParseTaskDetails(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	proc := defs.Processes[0]

	task := proc.FirstChild("serviceTask")
	require.NotNil(t, task)
	assert.Equal(t, "work", task.CamundaAttr("topic"))
	assert.Equal(t, "true", task.CamundaAttr("asyncBefore"))
	assert.Equal(t, "Does the work.", task.Documentation)
	require.NotNil(t, task.Extensions)
	assert.Equal(t, []Param{{Name: "mode", Value: "fast"}}, task.Extensions.Inputs)
	assert.Equal(t, []Param{{Name: "result", Value: "${out}"}}, task.Extensions.Outputs)

	script := proc.FirstChild("scriptTask")
	require.NotNil(t, script)
	assert.Equal(t, "javascript", script.Attr["scriptFormat"])
	assert.Equal(t, "return 1;", script.ScriptBody)
}

func TestParseSequenceFlowCondition(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	proc := defs.Processes[0]

	flows := proc.ChildrenByType("sequenceFlow")
	require.Len(t, flows, 2)
	assert.Equal(t, "Start_1", flows[0].SourceRef)
	assert.Equal(t, "Task_1", flows[0].TargetRef)
	assert.Empty(t, flows[0].Condition)

	// Condition text is trimmed.
	assert.Equal(t, "${approved}", flows[1].Condition)

	gate := proc.FirstChild("exclusiveGateway")
	require.NotNil(t, gate)
	assert.Equal(t, "Flow_3", gate.Default)
}

func TestParseSubprocessAndMultiInstance(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	proc := defs.Processes[0]

	sub := proc.FirstChild("subProcess")
	require.NotNil(t, sub)
	require.Len(t, sub.Children, 3)
	assert.Equal(t, "Sub_1_Start", sub.Children[0].ID)
	assert.Equal(t, "clerk", sub.Children[1].CamundaAttr("assignee"))

	require.NotNil(t, sub.MultiInstance)
	assert.True(t, sub.MultiInstance.Sequential)
	assert.Equal(t, "items", sub.MultiInstance.Collection)
	assert.Equal(t, "item", sub.MultiInstance.ElementVariable)
	assert.Equal(t, "${done}", sub.MultiInstance.CompletionCondition)
}

func TestParseBoundaryEvent(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	proc := defs.Processes[0]

	bound := proc.FirstChild("boundaryEvent")
	require.NotNil(t, bound)
	assert.Equal(t, "Task_1", bound.AttachedToRef)
	assert.Equal(t, "false", bound.CancelActivity)
	require.Len(t, bound.Events, 1)
	assert.Equal(t, "timer", bound.Events[0].Kind)
	assert.Equal(t, "PT5M", bound.Events[0].TimerExpression())
}

func TestParseStartEventDefinition(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	proc := defs.Processes[0]

	start := proc.FirstChild("startEvent")
	require.NotNil(t, start)
	require.Len(t, start.Events, 1)
	assert.Equal(t, "message", start.Events[0].Kind)
	assert.Equal(t, "Message_1", start.Events[0].Ref)
}

func TestParseCapturesDiagramVerbatim(t *testing.T) {
	defs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	want := "<bpmndi:BPMNDiagram id=\"Diagram_1\">\n" +
		"    <bpmndi:BPMNPlane id=\"Plane_1\" bpmnElement=\"Process_1\" />\n" +
		"  </bpmndi:BPMNDiagram>"
	assert.Equal(t, want, defs.DiagramXML)
}

func TestParseNoDiagram(t *testing.T) {
	doc := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="D1">
  <bpmn:process id="P1" />
</bpmn:definitions>`
	defs, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, defs.DiagramXML)
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte(`<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"><bpmn:process`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed XML")
}

func TestParseWrongRoot(t *testing.T) {
	_, err := Parse([]byte(`<html><body /></html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected root element")
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
}

func TestTimerExpressionPriority(t *testing.T) {
	assert.Equal(t, "R/PT1H", EventDefinition{TimeCycle: "R/PT1H", TimeDuration: "PT1M"}.TimerExpression())
	assert.Equal(t, "2026-01-01", EventDefinition{TimeDate: "2026-01-01", TimeDuration: "PT1M"}.TimerExpression())
	assert.Equal(t, "PT1M", EventDefinition{TimeDuration: "PT1M"}.TimerExpression())
}
