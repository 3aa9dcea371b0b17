// internal/extractor/schema.go
package extractor

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// resultSchema is the contract the LLM reply must satisfy before it is
// allowed anywhere near the database. annualTurnover admits a string so the
// model may answer in idioms like "2 crore"; normalization resolves it.
const resultSchema = `{
  "type": "object",
  "required": ["location", "industry", "businessSize", "annualTurnover", "employeeCount", "schemeInterests", "confidence", "detectedLanguages"],
  "properties": {
    "location": {
      "anyOf": [{"type": "string"}, {"type": "null"}]
    },
    "industry": {
      "anyOf": [{"type": "string"}, {"type": "null"}]
    },
    "businessSize": {
      "anyOf": [
        {"type": "string", "enum": ["micro", "small", "medium", "Micro", "Small", "Medium"]},
        {"type": "null"}
      ]
    },
    "annualTurnover": {
      "anyOf": [{"type": "number"}, {"type": "string"}, {"type": "null"}]
    },
    "employeeCount": {
      "anyOf": [{"type": "integer", "minimum": 0}, {"type": "null"}]
    },
    "schemeInterests": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["schemeName", "interestLevel"],
        "properties": {
          "schemeName": {"type": "string", "minLength": 1},
          "interestLevel": {"type": "string", "enum": ["mentioned", "inquired", "detailed"]}
        }
      }
    },
    "confidence": {"type": "number"},
    "detectedLanguages": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(resultSchema)

func validateResult(payload []byte) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		first := ""
		if errs := result.Errors(); len(errs) > 0 {
			first = errs[0].String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, first)
	}
	return nil
}
