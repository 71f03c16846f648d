package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casewright/casewright/internal/ir"
)

func threeStageCase() *ir.CaseIR {
	return &ir.CaseIR{
		ID:      "Case_patch",
		Name:    "Patch target",
		Trigger: ir.Trigger{Kind: ir.TriggerManual},
		Stages: []ir.Stage{
			{ID: "stage_1", Name: "First", Groups: []ir.Group{{ID: "grp_1", Steps: []ir.Step{
				{Kind: ir.StepAutomation, ID: "s1", Name: "Collect"},
			}}}},
			{ID: "stage_2", Name: "Second", Groups: []ir.Group{{ID: "grp_2", Steps: []ir.Step{
				{Kind: ir.StepUser, ID: "s2", Name: "Review"},
			}}}},
			{ID: "stage_3", Name: "Third", Groups: []ir.Group{{ID: "grp_3", Steps: []ir.Step{
				{Kind: ir.StepAutomation, ID: "s3", Name: "Archive"},
			}}}},
		},
		End: ir.EndEvent{Kind: ir.EndNone},
	}
}

func mustOps(t *testing.T, src string) []Operation {
	t.Helper()
	ops, err := ParseOperations([]byte(src))
	require.NoError(t, err)
	return ops
}

func snapshot(t *testing.T, doc *ir.CaseIR) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

func TestApplyReplaceStageName(t *testing.T) {
	doc := threeStageCase()
	before := snapshot(t, doc)

	out, err := Apply(doc, mustOps(t, `[{"op":"replace","path":"/stages/0/name","value":"Intake"}]`))
	require.NoError(t, err)

	assert.Equal(t, "Intake", out.Stages[0].Name)

	// Only that one field differs; restoring it makes the documents
	// deep-equal again.
	out.Stages[0].Name = "First"
	assert.Equal(t, before, snapshot(t, out))

	// The input document is untouched.
	assert.Equal(t, before, snapshot(t, doc))
}

func TestApplyOutOfRangeIndexLeavesDocumentUnchanged(t *testing.T) {
	doc := threeStageCase()
	before := snapshot(t, doc)

	out, err := Apply(doc, mustOps(t, `[{"op":"replace","path":"/stages/9/name","value":"X"}]`))
	require.Error(t, err)
	assert.True(t, IsPatchError(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeIndexOutOfRange, pe.Code)
	assert.Equal(t, 0, pe.OpIndex)
	assert.Equal(t, "/stages/9", pe.Path)

	assert.Equal(t, before, snapshot(t, out))
}

func TestApplyBatchIsAtomic(t *testing.T) {
	doc := threeStageCase()
	before := snapshot(t, doc)

	// First op would succeed; second fails. Nothing may stick.
	out, err := Apply(doc, mustOps(t, `[
		{"op":"replace","path":"/stages/0/name","value":"Intake"},
		{"op":"remove","path":"/stages/7"}
	]`))
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.OpIndex)
	assert.Equal(t, before, snapshot(t, out))
}

func TestApplySequentialSemantics(t *testing.T) {
	// The second operation's index accounts for the first removal.
	doc := threeStageCase()
	out, err := Apply(doc, mustOps(t, `[
		{"op":"remove","path":"/stages/0"},
		{"op":"replace","path":"/stages/0/name","value":"Now First"}
	]`))
	require.NoError(t, err)
	require.Len(t, out.Stages, 2)
	assert.Equal(t, "stage_2", out.Stages[0].ID)
	assert.Equal(t, "Now First", out.Stages[0].Name)
}

func TestApplyAddAppend(t *testing.T) {
	doc := threeStageCase()
	out, err := Apply(doc, mustOps(t, `[
		{"op":"add","path":"/stages/-","value":{"id":"stage_4","name":"Fourth","groups":[]}}
	]`))
	require.NoError(t, err)
	require.Len(t, out.Stages, 4)
	assert.Equal(t, "stage_4", out.Stages[3].ID)
}

func TestApplyAddInsertsBeforeIndex(t *testing.T) {
	doc := threeStageCase()
	out, err := Apply(doc, mustOps(t, `[
		{"op":"add","path":"/stages/1","value":{"id":"stage_x","name":"Wedge","groups":[]}}
	]`))
	require.NoError(t, err)
	require.Len(t, out.Stages, 4)
	assert.Equal(t, "stage_1", out.Stages[0].ID)
	assert.Equal(t, "stage_x", out.Stages[1].ID)
	assert.Equal(t, "stage_2", out.Stages[2].ID)
}

func TestApplyMove(t *testing.T) {
	doc := threeStageCase()
	out, err := Apply(doc, mustOps(t, `[
		{"op":"move","from":"/stages/0","path":"/stages/2"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "stage_2", out.Stages[0].ID)
	assert.Equal(t, "stage_3", out.Stages[1].ID)
	assert.Equal(t, "stage_1", out.Stages[2].ID)
}

func TestApplyMoveIntoOwnDescendantRejected(t *testing.T) {
	doc := threeStageCase()
	_, err := Apply(doc, mustOps(t, `[
		{"op":"move","from":"/stages/0","path":"/stages/0/groups/0"}
	]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidMove, pe.Code)
}

func TestApplyCopy(t *testing.T) {
	doc := threeStageCase()
	out, err := Apply(doc, mustOps(t, `[
		{"op":"copy","from":"/stages/0/name","path":"/stages/1/name"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "First", out.Stages[0].Name)
	assert.Equal(t, "First", out.Stages[1].Name)
}

func TestApplyTest(t *testing.T) {
	doc := threeStageCase()

	_, err := Apply(doc, mustOps(t, `[{"op":"test","path":"/stages/0/name","value":"First"}]`))
	require.NoError(t, err)

	_, err = Apply(doc, mustOps(t, `[{"op":"test","path":"/stages/0/name","value":"Wrong"}]`))
	require.Error(t, err)
	assert.True(t, IsTestFailed(err))
}

func TestApplyTestGuardsLaterOps(t *testing.T) {
	doc := threeStageCase()
	before := snapshot(t, doc)

	out, err := Apply(doc, mustOps(t, `[
		{"op":"test","path":"/stages/0/name","value":"Stale"},
		{"op":"replace","path":"/stages/0/name","value":"Clobbered"}
	]`))
	require.Error(t, err)
	assert.True(t, IsTestFailed(err))
	assert.Equal(t, before, snapshot(t, out))
}

func TestApplySameBatchTwiceFromSameInput(t *testing.T) {
	// A holding test op never mutates; applying the batch twice against the
	// original document yields the same result both times.
	doc := threeStageCase()
	ops := mustOps(t, `[
		{"op":"test","path":"/stages/0/name","value":"First"},
		{"op":"replace","path":"/stages/1/name","value":"Second Pass"}
	]`)

	a, err := Apply(doc, ops)
	require.NoError(t, err)
	b, err := Apply(doc, ops)
	require.NoError(t, err)

	assert.Equal(t, snapshot(t, a), snapshot(t, b))
}

func TestApplyRejectsFloats(t *testing.T) {
	doc := threeStageCase()
	_, err := Apply(doc, mustOps(t, `[{"op":"replace","path":"/name","value":1.5}]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeValueForbidden, pe.Code)
}

func TestApplyRejectsUnknownField(t *testing.T) {
	doc := threeStageCase()
	_, err := Apply(doc, mustOps(t, `[{"op":"add","path":"/sparkle","value":true}]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeDocumentInvalid, pe.Code)
}

func TestApplyResultMustSatisfyInvariants(t *testing.T) {
	doc := threeStageCase()
	before := snapshot(t, doc)

	// Duplicating a stage id violates the uniqueness invariant; the whole
	// batch is rejected even though every operation resolved.
	out, err := Apply(doc, mustOps(t, `[
		{"op":"replace","path":"/stages/1/id","value":"stage_1"}
	]`))
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeDocumentInvalid, pe.Code)
	assert.Equal(t, before, snapshot(t, out))
}

func TestApplyMissingValueAndFrom(t *testing.T) {
	doc := threeStageCase()

	_, err := Apply(doc, mustOps(t, `[{"op":"replace","path":"/name"}]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeValueRequired, pe.Code)

	_, err = Apply(doc, mustOps(t, `[{"op":"move","path":"/name"}]`))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeFromRequired, pe.Code)
}

func TestApplyUnknownOp(t *testing.T) {
	doc := threeStageCase()
	_, err := Apply(doc, mustOps(t, `[{"op":"transmogrify","path":"/name"}]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidOp, pe.Code)
}
