package schema

import (
	"fmt"
	"reflect"
)

// FieldType defines the contract for validating one declared output field.
type FieldType interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// FieldSchema maps declared output field names to their expected types.
// Agent nodes that declare `config.schema` have their parsed structured
// output validated against one of these.
type FieldSchema map[string]FieldType

// Validate checks parsed output against the schema, aggregating every
// failure found.
func (s FieldSchema) Validate(data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	var errs ValidationErrors
	for fieldName, fieldType := range s {
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Field: fieldName, Reason: "required"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Field: fieldName, Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type stringType struct{}

func (t stringType) Name() string { return "string" }

func (t stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (t intType) Name() string { return "int" }

func (t intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON unmarshaling yields float64 for every number.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type floatType struct{}

func (t floatType) Name() string { return "float" }

func (t floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (t boolType) Name() string { return "bool" }

func (t boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type sliceType struct {
	elem FieldType
}

func (t sliceType) Name() string { return fmt.Sprintf("[%s]", t.elem.Name()) }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ParseFieldType converts a type name into a FieldType.
// Supports "string", "int", "float", "bool" and slice forms like "[string]".
func ParseFieldType(typeStr string) (FieldType, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elem, err := ParseFieldType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return sliceType{elem: elem}, nil
	}

	switch typeStr {
	case "string":
		return stringType{}, nil
	case "int":
		return intType{}, nil
	case "float":
		return floatType{}, nil
	case "bool":
		return boolType{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseFieldSchema converts a map of field names to type names into a
// FieldSchema. Example: {"score": "float", "tags": "[string]"}.
func ParseFieldSchema(typeMap map[string]any) (FieldSchema, error) {
	result := make(FieldSchema, len(typeMap))
	for key, v := range typeMap {
		typeStr, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected type name string, got %T", key, v)
		}
		t, err := ParseFieldType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
