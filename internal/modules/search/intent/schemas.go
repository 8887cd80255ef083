package intent

import "github.com/dinefind/core/internal/pkg/llm"

// Static JSON Schema literals handed to the model adapter. These are the
// source of truth for strict mode; the typed output structs only
// re-validate. Runtime schema generation from Go types proved brittle
// with several converter versions, hence hand-written literals.

var gateSchema = llm.NewSchema("intent_gate", "v3", `{
	"type": "object",
	"properties": {
		"foodSignal": {"type": "string", "enum": ["NO", "UNCERTAIN", "YES"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"hasFood": {"type": "boolean"},
		"hasLocation": {"type": "boolean"},
		"hasModifiers": {"type": "boolean"},
		"language": {"type": "string"}
	},
	"required": ["foodSignal", "confidence", "hasFood", "hasLocation", "hasModifiers", "language"],
	"additionalProperties": false
}`)

var routeSchema = llm.NewSchema("intent_route", "v5", `{
	"type": "object",
	"properties": {
		"route": {"type": "string", "enum": ["NEARBY", "TEXTSEARCH", "LANDMARK"]},
		"category": {"type": ["string", "null"]},
		"categoryLocal": {"type": ["string", "null"]},
		"locationText": {"type": ["string", "null"]},
		"landmark": {"type": ["string", "null"]},
		"language": {"type": "string"},
		"region": {"type": ["string", "null"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"}
	},
	"required": ["route", "category", "categoryLocal", "locationText", "landmark", "language", "region", "confidence", "reason"],
	"additionalProperties": false
}`)

var baseFiltersSchema = llm.NewSchema("base_filters", "v2", `{
	"type": "object",
	"properties": {
		"language": {"type": "string"},
		"openState": {"type": ["string", "null"], "enum": ["OPEN_NOW", "OPEN_AT", "OPEN_BETWEEN", null]},
		"openAt": {
			"type": ["object", "null"],
			"properties": {
				"day": {"type": "integer", "minimum": 0, "maximum": 6},
				"time": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"timezone": {"type": ["string", "null"]}
			},
			"required": ["day", "time"],
			"additionalProperties": false
		},
		"openBetween": {
			"type": ["object", "null"],
			"properties": {
				"day": {"type": "integer", "minimum": 0, "maximum": 6},
				"start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"timezone": {"type": ["string", "null"]}
			},
			"required": ["day", "start", "end"],
			"additionalProperties": false
		},
		"regionHint": {"type": ["string", "null"]}
	},
	"required": ["language", "openState", "openAt", "openBetween", "regionHint"],
	"additionalProperties": false
}`)

var postConstraintsSchema = llm.NewSchema("post_constraints", "v2", `{
	"type": "object",
	"properties": {
		"openState": {"type": ["string", "null"], "enum": ["OPEN_NOW", "OPEN_AT", "OPEN_BETWEEN", null]},
		"openAt": {
			"type": ["object", "null"],
			"properties": {
				"day": {"type": "integer", "minimum": 0, "maximum": 6},
				"time": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"timezone": {"type": ["string", "null"]}
			},
			"required": ["day", "time"],
			"additionalProperties": false
		},
		"openBetween": {
			"type": ["object", "null"],
			"properties": {
				"day": {"type": "integer", "minimum": 0, "maximum": 6},
				"start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"timezone": {"type": ["string", "null"]}
			},
			"required": ["day", "start", "end"],
			"additionalProperties": false
		},
		"priceLevel": {"type": ["integer", "null"], "minimum": 1, "maximum": 4},
		"kosher": {"type": ["boolean", "null"]},
		"requirements": {
			"type": "object",
			"properties": {
				"accessible": {"type": ["boolean", "null"]},
				"parking": {"type": ["boolean", "null"]}
			},
			"required": ["accessible", "parking"],
			"additionalProperties": false
		}
	},
	"required": ["openState", "openAt", "openBetween", "priceLevel", "kosher", "requirements"],
	"additionalProperties": false
}`)
