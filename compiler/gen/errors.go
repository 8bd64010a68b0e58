package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a schema definition error.
	ErrInvalidSchema = errors.New("apigen: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("apigen: missing configuration")
	// ErrGenerationFailed indicates an output generation failure.
	ErrGenerationFailed = errors.New("apigen: generation failed")
	// ErrPrimaryKey indicates that a type referenced by a relation has
	// zero or more than one primary key.
	ErrPrimaryKey = errors.New("apigen: missing or ambiguous primary key")
	// ErrReferencedColumn indicates a missing, conflicting or doubly
	// declared referenced column.
	ErrReferencedColumn = errors.New("apigen: conflicting or missing referenced column")
	// ErrPropertyType indicates that a property has an unexpected type.
	ErrPropertyType = errors.New("apigen: unexpected property type")
)

// SchemaError represents a schema definition error.
type SchemaError struct {
	Type    string // Entity type name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("apigen: schema error")
	writeLocation(&b, e.Type, e.Field)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(typeName, fieldName, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("apigen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("apigen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents an output generation error.
type GenerationError struct {
	Phase   string // "snapshot", "ddl", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("apigen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// PrimaryKeyError is returned when a relation needs the primary key of
// a type that declares none, or more than one.
type PrimaryKeyError struct {
	// Type is the type whose primary key was required.
	Type string
	// Count is the number of primary keys the type declares.
	Count int
	// Referrer is the "Type.field" that required the key, if any.
	Referrer string
}

// Error implements the error interface.
func (e *PrimaryKeyError) Error() string {
	var msg string
	if e.Count == 0 {
		msg = fmt.Sprintf("apigen: the entity %q doesn't have any primary key", e.Type)
	} else {
		msg = fmt.Sprintf("apigen: the entity %q has more than one primary key (%d)", e.Type, e.Count)
	}
	if e.Referrer != "" {
		msg += " (referenced by " + e.Referrer + ")"
	}
	return msg
}

// Is reports whether the target matches the sentinel error for PrimaryKeyError.
func (e *PrimaryKeyError) Is(target error) bool {
	return target == ErrPrimaryKey
}

// NewPrimaryKeyError creates a new PrimaryKeyError.
func NewPrimaryKeyError(typeName string, count int, referrer string) *PrimaryKeyError {
	return &PrimaryKeyError{Type: typeName, Count: count, Referrer: referrer}
}

// ReferencedColumnError is returned when a field's referenced column cannot
// be established: the named back-reference does not exist, an existing
// pairing conflicts with a new one, or both sides declare a back-reference.
type ReferencedColumnError struct {
	Type  string
	Field string
	// Expected holds the existing pairing as "Type.field", if any.
	Expected string
	Message  string
}

// Error implements the error interface.
func (e *ReferencedColumnError) Error() string {
	var b strings.Builder
	b.WriteString("apigen: referenced column error")
	writeLocation(&b, e.Type, e.Field)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Expected != "" {
		b.WriteString(" (expected ")
		b.WriteString(e.Expected)
		b.WriteString(")")
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ReferencedColumnError.
func (e *ReferencedColumnError) Is(target error) bool {
	return target == ErrReferencedColumn
}

// NewReferencedColumnError creates a new ReferencedColumnError.
func NewReferencedColumnError(typeName, fieldName, expected, message string) *ReferencedColumnError {
	return &ReferencedColumnError{
		Type:     typeName,
		Field:    fieldName,
		Expected: expected,
		Message:  message,
	}
}

// PropertyTypeError is returned when a property has a type other than
// the one its relation requires.
type PropertyTypeError struct {
	Type  string
	Field string
	Want  PropertyType
	Got   PropertyType
}

// Error implements the error interface.
func (e *PropertyTypeError) Error() string {
	var b strings.Builder
	b.WriteString("apigen: property type error")
	writeLocation(&b, e.Type, e.Field)
	got := string(e.Got)
	if got == "" {
		got = "unset"
	}
	fmt.Fprintf(&b, ": the column has to be type %s, type %s is given", e.Want, got)
	return b.String()
}

// Is reports whether the target matches the sentinel error for PropertyTypeError.
func (e *PropertyTypeError) Is(target error) bool {
	return target == ErrPropertyType
}

// NewPropertyTypeError creates a new PropertyTypeError.
func NewPropertyTypeError(typeName, fieldName string, want, got PropertyType) *PropertyTypeError {
	return &PropertyTypeError{Type: typeName, Field: fieldName, Want: want, Got: got}
}

func writeLocation(b *strings.Builder, typeName, fieldName string) {
	if typeName != "" {
		b.WriteString(" on type ")
		b.WriteString(typeName)
	}
	if fieldName != "" {
		b.WriteString(" field ")
		b.WriteString(fieldName)
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsPrimaryKeyError reports whether the error is a PrimaryKeyError.
func IsPrimaryKeyError(err error) bool {
	var pkErr *PrimaryKeyError
	return errors.As(err, &pkErr)
}

// IsReferencedColumnError reports whether the error is a ReferencedColumnError.
func IsReferencedColumnError(err error) bool {
	var refErr *ReferencedColumnError
	return errors.As(err, &refErr)
}

// IsPropertyTypeError reports whether the error is a PropertyTypeError.
func IsPropertyTypeError(err error) bool {
	var typeErr *PropertyTypeError
	return errors.As(err, &typeErr)
}
