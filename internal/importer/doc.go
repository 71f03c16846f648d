// Package importer turns BPMN/Camunda-7 document bytes into a Case IR
// instance.
//
// The interesting part is stage synthesis: BPMN has no stage primitive, so
// the importer infers one from document-order runs of task-like elements
// and subprocess boundaries. The grouping rule is an explicit
// classify-then-flush reducer so it stays testable in isolation from
// parsing.
//
// Import never mutates its input and produces warnings (not failures) for
// recoverable ambiguity: a document without subprocess boundaries or
// without any recognizable tasks still imports.
package importer
