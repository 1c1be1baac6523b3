/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import (
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// sceneSchema is the wire contract for PUT scene payloads. Elements carry
// arbitrary host-defined fields beyond the required core, so
// additionalProperties stays open.
const sceneSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "drawdeck scene",
  "type": "object",
  "required": ["elements", "appState"],
  "properties": {
    "elements": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "x", "y", "width", "height"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "frameId": {"type": ["string", "null"]},
          "isDeleted": {"type": "boolean"},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "width": {"type": "number"},
          "height": {"type": "number"},
          "opacity": {"type": "number"}
        }
      }
    },
    "appState": {
      "type": "object",
      "properties": {
        "scrollX": {"type": "number"},
        "scrollY": {"type": "number"},
        "zoom": {
          "type": "object",
          "properties": {"value": {"type": "number", "exclusiveMinimum": 0}}
        },
        "theme": {"type": "string", "enum": ["light", "dark"]},
        "activeTool": {"type": "string"}
      }
    },
    "files": {"type": "object"}
  }
}`

var sceneSchemaLoader = gojsonschema.NewStringLoader(sceneSchema)

// ValidateScene checks a raw scene document against the wire schema.
func ValidateScene(doc []byte) error {
	result, err := gojsonschema.Validate(sceneSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("scene validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid scene: %s", strings.Join(msgs, "; "))
	}
	return nil
}
