package validator

import (
	"errors"

	"mercator-hq/irvm/pkg/ir"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
)

// Validator orchestrates the schema and semantic passes.
type Validator struct {
	schema   *SchemaValidator
	semantic *SemanticValidator
}

// NewValidator creates a validator. builtins lists built-in names the
// executor provides beyond those declared in the policy.
func NewValidator(builtins []string) (*Validator, error) {
	schema, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Validator{
		schema:   schema,
		semantic: NewSemanticValidator(builtins),
	}, nil
}

// Validate runs the semantic pass on a decoded policy.
func (v *Validator) Validate(policy *ir.Policy) error {
	return v.semantic.Validate(policy)
}

// ValidateDocument runs the schema pass on the raw JSON document and, when
// it succeeds, decodes the document and runs the semantic pass. The decoded
// policy is returned when there are no errors.
func (v *Validator) ValidateDocument(doc []byte) (*ir.Policy, error) {
	errs := irErrors.NewErrorList()

	if err := v.schema.Validate(doc); err != nil {
		appendErrors(errs, err, irErrors.ErrorTypeSchema)
		return nil, errs.ToError()
	}

	policy, err := ir.ParseJSON(doc)
	if err != nil {
		errs.AddError(irErrors.ErrorTypeDecode, err.Error(), ir.Location{})
		return nil, errs.ToError()
	}

	// Semantic errors only make sense once the shape is right.
	if err := v.semantic.Validate(policy); err != nil {
		appendErrors(errs, err, irErrors.ErrorTypeSemantic)
	}
	if errs.HasErrors() {
		return nil, errs.ToError()
	}
	return policy, nil
}

// ValidateSchema runs only the schema pass.
func (v *Validator) ValidateSchema(doc []byte) error {
	return v.schema.Validate(doc)
}

func appendErrors(dst *irErrors.ErrorList, err error, fallback irErrors.ErrorType) {
	var list *irErrors.ErrorList
	if errors.As(err, &list) {
		dst.Merge(list)
		return
	}
	dst.AddError(fallback, err.Error(), ir.Location{})
}
