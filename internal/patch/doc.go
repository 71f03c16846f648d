// Package patch implements the RFC 6902 tree-patch engine: the single
// mutation path for Case IR documents.
//
// Apply works on a fresh generic value tree converted from the input
// document, so the input is never mutated. Operations apply strictly in
// list order against the progressively mutated copy; if any operation
// fails, the copy is discarded and the input document is returned
// unchanged. Partial application is never observable.
package patch
