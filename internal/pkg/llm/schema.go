package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Schema is a static, hand-written JSON Schema literal. The literal is the
// source of truth handed to the model; the typed destination struct only
// re-validates what comes back.
type Schema struct {
	Name    string
	Version string
	Raw     string
	hash    string
}

// NewSchema builds a Schema and precomputes its hash. Panics on a literal
// that is not valid JSON, so a broken schema fails at init, not at runtime.
func NewSchema(name, version, raw string) Schema {
	var probe interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		panic(fmt.Sprintf("llm: schema %s@%s is not valid JSON: %v", name, version, err))
	}
	return Schema{
		Name:    name,
		Version: version,
		Raw:     raw,
		hash:    hashPrefix(raw),
	}
}

// Hash returns the truncated SHA-256 of the schema literal.
func (s Schema) Hash() string { return s.hash }

// HashText returns the truncated SHA-256 prefix used for prompt and
// schema identifiers in logs.
func HashText(s string) string { return hashPrefix(s) }

func hashPrefix(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// decodeModelJSON extracts the JSON object from raw model output, tolerating
// code fences and surrounding prose, and decodes it strictly into out.
func decodeModelJSON(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := strictUnmarshal(cleaned, out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := strictUnmarshal(cleaned[start:end+1], out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: invalid JSON in model output", ErrSchema)
}

func strictUnmarshal(data string, out interface{}) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
