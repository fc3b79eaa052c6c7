package decision

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var wireSchema string

const wireSchemaURL = "https://reveal.schemas.local/wire-nudge-decision.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(wireSchemaURL, bytes.NewReader([]byte(wireSchema))); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return c.Compile(wireSchemaURL)
})

// Decode parses and validates a wire decision payload.
// Empty input and the JSON literal null decode to a nil decision, which
// means "clear the overlay".
func Decode(data []byte) (*WireNudgeDecision, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	var wire WireNudgeDecision
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	if err := wire.Validate(); err != nil {
		return nil, err
	}
	return &wire, nil
}
