// Package bpmn provides a minimal, order-preserving element model for
// BPMN 2.0 documents with Camunda-7 extensions.
//
// The decoder keeps process children in document order (a plain struct
// decode would bucket them by element name, losing the order the importer's
// stage synthesis depends on) and captures the raw bpmndi:BPMNDiagram block
// byte for byte for round-trip re-emission.
//
// The model is deliberately dumb: it records what the document says and
// leaves classification and interpretation to the importer.
package bpmn
