package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// collectionSchemaJSON is the shape a persisted history file must have. The
// file is shared with external writers (other processes may own the same
// path), so structure is checked before unmarshaling rather than trusting
// whatever decodes.
const collectionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "filename", "created_at", "total_questions", "met", "not_met", "partial", "questions"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "filename": {"type": "string"},
      "created_at": {"type": "string"},
      "total_questions": {"type": "integer", "minimum": 0},
      "met": {"type": "integer", "minimum": 0},
      "not_met": {"type": "integer", "minimum": 0},
      "partial": {"type": "integer", "minimum": 0},
      "questions": {"type": "array", "items": {"type": "string"}},
      "answers": {"type": "object"}
    }
  }
}`

var (
	collectionSchema *jsonschema.Schema
	schemaPrinter    = message.NewPrinter(language.English)
)

func init() {
	collectionSchema = mustCompileSchema(collectionSchemaJSON, "history.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// validateCollection checks raw persisted bytes against the collection
// schema. Any violation means the stored data is corrupt.
func validateCollection(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing history file: %w", err)
	}

	err := collectionSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema: %w", err)
	}

	var errs []string
	collectSchemaErrors(ve, &errs)
	return fmt.Errorf("invalid history collection: %s", strings.Join(errs, "; "))
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
