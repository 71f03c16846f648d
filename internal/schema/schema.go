// Package schema validates serialized case documents against the embedded
// CUE schema. This is a second, independent line of defense behind the
// structural checks in the ir package: the schema rejects unknown fields
// and malformed discriminators even in JSON that never passed through the
// Go types.
package schema

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/casewright/casewright/internal/ir"
)

// Schema error codes (E500-E509).
const (
	ErrCodeNotJSON = "E500" // input is not valid JSON
	ErrCodeSchema  = "E501" // document violates the schema
	ErrCodeCompile = "E502" // the embedded schema itself failed to compile
)

//go:embed caseir.cue
var schemaSource string

var (
	compileOnce sync.Once
	caseSchema  cue.Value
)

// compiled builds the #Case definition once. A compile failure here is a
// build defect, surfaced as a validation error rather than a panic.
func compiled() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		caseSchema = ctx.CompileString(schemaSource, cue.Filename("caseir.cue")).
			LookupPath(cue.ParsePath("#Case"))
	})
	if err := caseSchema.Err(); err != nil {
		return cue.Value{}, err
	}
	return caseSchema, nil
}

// Validate checks serialized document JSON against the schema. The result
// collects every violation; nil means the document conforms.
func Validate(data []byte) []ir.ValidationError {
	schema, err := compiled()
	if err != nil {
		return []ir.ValidationError{{Field: "schema", Code: ErrCodeCompile, Message: err.Error()}}
	}

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return []ir.ValidationError{{Field: "document", Code: ErrCodeNotJSON, Message: err.Error()}}
	}

	doc := schema.Context().BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []ir.ValidationError{{Field: "document", Code: ErrCodeNotJSON, Message: err.Error()}}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		var out []ir.ValidationError
		for _, e := range cueerrors.Errors(err) {
			out = append(out, ir.ValidationError{
				Field:   fieldPath(e),
				Code:    ErrCodeSchema,
				Message: e.Error(),
			})
		}
		return out
	}
	return nil
}

// ValidateCase serializes a document and validates the result. Convenient
// for callers holding the Go form.
func ValidateCase(doc *ir.CaseIR) []ir.ValidationError {
	data, err := json.Marshal(doc)
	if err != nil {
		return []ir.ValidationError{{Field: "document", Code: ErrCodeNotJSON, Message: err.Error()}}
	}
	return Validate(data)
}

func fieldPath(e cueerrors.Error) string {
	path := e.Path()
	if len(path) == 0 {
		return "document"
	}
	return strings.Join(path, ".")
}
