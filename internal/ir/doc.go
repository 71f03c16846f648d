// Package ir provides the Case IR: the typed tree every other package
// operates on.
//
// This package contains the data model, its structural invariants, a sealed
// generic value tree used by the patch engine, and canonical serialization.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Step, Trigger, EndEvent and BoundaryEvent are closed variants: a kind
//     discriminator plus kind-specific payload, validated together
//   - Metadata is written only by the importer and read only by the
//     exporter; it never affects semantics
//   - All JSON tags use snake_case
//   - No float values anywhere in the document tree
package ir
