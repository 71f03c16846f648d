package exporter

import "encoding/xml"

// Marshal model. Tag names carry their prefixes literally so the output
// matches the prefixed form Camunda tooling writes; the definitions
// element declares every prefix used.

type xmlDefinitions struct {
	XMLName xml.Name   `xml:"bpmn:definitions"`
	Attrs   []xml.Attr `xml:",any,attr"`

	Messages []xmlNamed `xml:"bpmn:message,omitempty"`
	Signals  []xmlNamed `xml:"bpmn:signal,omitempty"`
	Errors   []xmlNamed `xml:"bpmn:error,omitempty"`

	Process *xmlProcess `xml:"bpmn:process"`

	// DiagramRaw is the bpmndi:BPMNDiagram block, tags included. Either the
	// captured original bytes or a computed layout; written verbatim.
	DiagramRaw string `xml:",innerxml"`
}

type xmlNamed struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr,omitempty"`
	Code string `xml:"errorCode,attr,omitempty"`
}

type xmlProcess struct {
	ID    string     `xml:"id,attr"`
	Name  string     `xml:"name,attr,omitempty"`
	Attrs []xml.Attr `xml:",any,attr"`

	Documentation *xmlText `xml:"bpmn:documentation,omitempty"`

	// Nodes holds the flow elements in chain order, sequence flows last.
	// Each entry is a *xmlNode or *xmlSequenceFlow.
	Nodes []any
}

// xmlNode is every flow element: events, tasks, gateways, subprocesses.
// XMLName is set per instance ("bpmn:serviceTask", "bpmn:startEvent", ...).
type xmlNode struct {
	XMLName xml.Name
	ID      string     `xml:"id,attr,omitempty"`
	Name    string     `xml:"name,attr,omitempty"`
	Attrs   []xml.Attr `xml:",any,attr"`

	Documentation *xmlText       `xml:"bpmn:documentation,omitempty"`
	Extensions    *xmlExtensions `xml:"bpmn:extensionElements,omitempty"`

	Events []*xmlEventDef

	MultiInstance *xmlMultiInstance `xml:"bpmn:multiInstanceLoopCharacteristics,omitempty"`

	Script *xmlText `xml:"bpmn:script,omitempty"`

	// Children holds a subprocess's inner elements and flows in chain
	// order; empty for leaf elements.
	Children []any
}

type xmlSequenceFlow struct {
	XMLName   xml.Name `xml:"bpmn:sequenceFlow"`
	ID        string   `xml:"id,attr"`
	Name      string   `xml:"name,attr,omitempty"`
	SourceRef string   `xml:"sourceRef,attr"`
	TargetRef string   `xml:"targetRef,attr"`
	Condition *xmlText `xml:"bpmn:conditionExpression,omitempty"`
}

// xmlEventDef is one event definition child. XMLName is set per instance
// ("bpmn:messageEventDefinition", "bpmn:timerEventDefinition", ...).
type xmlEventDef struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`

	TimeCycle    *xmlText `xml:"bpmn:timeCycle,omitempty"`
	TimeDate     *xmlText `xml:"bpmn:timeDate,omitempty"`
	TimeDuration *xmlText `xml:"bpmn:timeDuration,omitempty"`
}

type xmlMultiInstance struct {
	Sequential string   `xml:"isSequential,attr,omitempty"`
	Collection string   `xml:"camunda:collection,attr,omitempty"`
	ElementVar string   `xml:"camunda:elementVariable,attr,omitempty"`
	Completion *xmlText `xml:"bpmn:completionCondition,omitempty"`
}

type xmlExtensions struct {
	IO  *xmlInputOutput `xml:"camunda:inputOutput,omitempty"`
	In  []xmlIOBinding  `xml:"camunda:in,omitempty"`
	Out []xmlIOBinding  `xml:"camunda:out,omitempty"`
}

type xmlInputOutput struct {
	Inputs  []xmlParam `xml:"camunda:inputParameter,omitempty"`
	Outputs []xmlParam `xml:"camunda:outputParameter,omitempty"`
}

type xmlParam struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

type xmlIOBinding struct {
	Source           string `xml:"source,attr,omitempty"`
	SourceExpression string `xml:"sourceExpression,attr,omitempty"`
	Target           string `xml:"target,attr,omitempty"`
	Variables        string `xml:"variables,attr,omitempty"`
}

// xmlText is an element whose payload is character data, optionally typed
// (conditionExpression carries xsi:type="bpmn:tFormalExpression").
type xmlText struct {
	Type string `xml:"xsi:type,attr,omitempty"`
	Text string `xml:",chardata"`
}
