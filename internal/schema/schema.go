// Package schema validates canonical article records against the embedded
// JSON Schema. Invalid records are excluded, never fatal; only a schema
// compile failure at startup is.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"catex/internal/article"
	"catex/internal/telemetry"
)

//go:embed article.schema.json
var articleSchemaJSON []byte

const schemaURL = "https://catex.invalid/article.schema.json"

// sampleErrors bounds the violation detail attached to a mismatch event,
// regardless of batch size.
const sampleErrors = 3

// RecordError describes one record that failed validation.
type RecordError struct {
	Index  int    `json:"index"`
	Detail string `json:"detail"`
}

// Validator checks records against the article schema. A Validator with no
// compiled schema passes everything through (fail-open).
type Validator struct {
	schema   *jsonschema.Schema
	reporter telemetry.Reporter
}

// New compiles the embedded article schema. A compile error here is a
// programming error and should abort startup.
func New(reporter telemetry.Reporter) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(articleSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding article schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("registering article schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling article schema: %w", err)
	}
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Validator{schema: compiled, reporter: reporter}, nil
}

// NewFailOpen returns a validator without a schema: every record passes.
func NewFailOpen(reporter telemetry.Reporter) *Validator {
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Validator{reporter: reporter}
}

// Validate partitions records into valid and invalid. Invalid records are
// reported once per batch as a schema_mismatch event carrying the source,
// the error count and a truncated sample of violation detail.
func (v *Validator) Validate(records []article.Article, source string) ([]article.Article, []RecordError) {
	if v.schema == nil {
		return records, nil
	}

	valid := make([]article.Article, 0, len(records))
	var errs []RecordError
	for i, rec := range records {
		if err := v.validateRecord(rec); err != nil {
			errs = append(errs, RecordError{Index: i, Detail: err.Error()})
			continue
		}
		valid = append(valid, rec)
	}

	if len(errs) > 0 {
		sample := errs
		if len(sample) > sampleErrors {
			sample = sample[:sampleErrors]
		}
		v.reporter.Report(telemetry.EventSchemaMismatch, map[string]any{
			"source":        source,
			"errors_count":  len(errs),
			"sample_errors": sample,
		})
	}
	return valid, errs
}

// validateRecord routes the record back through JSON so the schema sees
// the exact wire shape, including omitted optional fields.
func (v *Validator) validateRecord(rec article.Article) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return v.schema.Validate(doc)
}
