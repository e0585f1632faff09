package task

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// fileSchema describes the persisted storage format: a JSON array of
// task objects. CheckFile validates against it so corruption can be
// surfaced on demand, since Load deliberately swallows it.
const fileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["title", "done", "priority", "created_at", "completed_at"],
    "additionalProperties": false,
    "properties": {
      "title": {"type": "string", "minLength": 1, "maxLength": 200},
      "done": {"type": "boolean"},
      "priority": {"type": "integer", "enum": [1, 2, 3]},
      "created_at": {"type": "string"},
      "completed_at": {"type": ["string", "null"]}
    }
  }
}`

// CheckFile validates the storage file at path against the task file
// schema. It returns an error when the file is unreadable, is not valid
// JSON, or does not conform to the schema.
func CheckFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("storage file is not valid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tasks.schema.json", strings.NewReader(fileSchema)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("tasks.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("storage file failed schema check: %w", firstSchemaCause(err))
	}
	return nil
}

// firstSchemaCause digs to the innermost cause so the reported error
// names the offending element instead of the whole document.
func firstSchemaCause(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
