// Package exporter serializes a Case IR instance back to a BPMN/Camunda-7
// document.
//
// Fidelity is tiered. A captured original diagram block is re-emitted
// verbatim; captured element and flow identifiers are reused wherever
// metadata holds them; only when no original layout exists does the
// exporter compute its own, a deterministic left-to-right chain that is a
// pure function of the document's structure.
//
// The exporter is a forgiving writer. Missing optional fields serialize as
// absent attributes; the one fatal condition is an internally inconsistent
// document, which is rejected before any byte is written.
package exporter
