package validator

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"mercator-hq/irvm/pkg/ir"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
)

//go:embed schema.json
var schemaDocument []byte

const schemaURL = "irvm://schema/policy.json"

// SchemaValidator checks the shape of a raw IR document against the
// embedded JSON Schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles the embedded schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("remote $ref not allowed: %s", url)
	}
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
		return nil, fmt.Errorf("failed to add IR schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile IR schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate checks a JSON document.
func (v *SchemaValidator) Validate(doc []byte) error {
	errs := irErrors.NewErrorList()

	dec := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		errs.AddError(irErrors.ErrorTypeDecode, fmt.Sprintf("malformed JSON: %v", err), ir.Location{})
		return errs.ToError()
	}

	if err := v.schema.Validate(tree); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			errs.AddError(irErrors.ErrorTypeSchema, err.Error(), ir.Location{})
			return errs.ToError()
		}
		for _, leaf := range leaves(ve) {
			errs.Add(&irErrors.Error{
				Type:    irErrors.ErrorTypeSchema,
				Message: leaf.Message,
				Context: instancePath(leaf.InstanceLocation),
			})
		}
	}
	return errs.ToError()
}

// leaves flattens a validation error tree to the causes that carry the
// actual failure.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func instancePath(loc string) string {
	if loc == "" {
		return "document root"
	}
	return "document " + strings.TrimPrefix(loc, "#")
}
