package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casewright/casewright/internal/ir"
	"github.com/casewright/casewright/internal/patch"
)

// LoadCase reads a serialized case document. Unknown fields are rejected
// so a mistyped document fails loudly instead of silently dropping data.
func LoadCase(path string) (*ir.CaseIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}

	doc := &ir.CaseIR{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("parse case file %s: %w", path, err)
	}
	return doc, nil
}

// WriteCase serializes a document to a file, or to the writer when path
// is "-" or empty.
func WriteCase(doc *ir.CaseIR, path string, fallback *OutputFormatter) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize case: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := fallback.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write case file: %w", err)
	}
	return nil
}

// LoadOperations reads a patch batch from a JSON or YAML file; the
// extension decides the format. YAML batches are converted to JSON before
// parsing so both paths share one validator.
func LoadOperations(path string) ([]patch.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse patch file %s: %w", path, err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("convert patch file %s: %w", path, err)
		}
	}

	ops, err := patch.ParseOperations(data)
	if err != nil {
		return nil, fmt.Errorf("parse patch file %s: %w", path, err)
	}
	return ops, nil
}
