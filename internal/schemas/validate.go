// Package schemas validates the settings and credentials documents against embedded
// JSON Schemas before they are decoded.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Embedded schemas.
var (
	//go:embed settings.schema.json
	Settings string

	//go:embed credentials.schema.json
	Credentials string
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Document string
	Errors   []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema or the document
type SchemaLoadError struct {
	Document string
	Message  string
	Cause    error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to validate %s: %s: %v", e.Document, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to validate %s: %s", e.Document, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:\n", ve.Document)
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateSettings checks a settings document.
func ValidateSettings(data []byte) error {
	return Validate("settings", Settings, data)
}

// ValidateCredentials checks a credentials document.
func ValidateCredentials(data []byte) error {
	return Validate("credentials", Credentials, data)
}

// Validate checks document against schema. name labels the errors.
func Validate(name, schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Document: name,
			Message:  "document or schema could not be loaded",
			Cause:    err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Document: name,
		Errors:   make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
