// Package catalog provides checklist taxonomies: the built-in OC/QSC checklist
// and validated loading of taxonomy files.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"oc-checklist-service/internal/domain"
)

//go:embed checklist.schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// FieldError is a single problem found in a taxonomy.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a taxonomy.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid checklist: " + strings.Join(parts, "; ")
}

// LoadFile reads and validates a JSON taxonomy from path.
func LoadFile(path string) (domain.Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("read checklist %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates data against the checklist schema and decodes it.
func Parse(data []byte) (domain.Checklist, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("validate checklist schema: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Errors = append(verr.Errors, FieldError{Field: re.Field(), Message: re.Description()})
		}
		return domain.Checklist{}, verr
	}

	var checklist domain.Checklist
	if err := json.Unmarshal(data, &checklist); err != nil {
		return domain.Checklist{}, fmt.Errorf("decode checklist: %w", err)
	}
	if err := Validate(checklist); err != nil {
		return domain.Checklist{}, err
	}
	return checklist, nil
}

// Validate checks struct rules and that item ids are unique across the
// whole checklist.
func Validate(checklist domain.Checklist) error {
	verr := &ValidationError{}

	if err := validator.New().Struct(checklist); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Errors = append(verr.Errors, FieldError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q", fe.Tag()),
			})
		}
	}

	seen := make(map[string]struct{})
	for _, cat := range checklist.Categories {
		for _, sec := range cat.Sections {
			for _, item := range sec.Items {
				if item.ID == "" {
					continue
				}
				if _, dup := seen[item.ID]; dup {
					verr.Errors = append(verr.Errors, FieldError{Field: item.ID, Message: "duplicate item id"})
				}
				seen[item.ID] = struct{}{}
			}
		}
	}

	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}
