/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package domain

import "encoding/json"

// knownElementKeys are the element fields the core interprets. Everything
// else round-trips through Element.Extra.
var knownElementKeys = []string{
	"id", "type", "frameId", "isDeleted", "x", "y", "width", "height", "opacity",
}

type elementAlias Element

// UnmarshalJSON decodes the interpreted fields and stashes all remaining
// host-defined fields into Extra so they survive a round trip.
func (e *Element) UnmarshalJSON(data []byte) error {
	var a elementAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownElementKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		extra, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		a.Extra = extra
	}
	*e = Element(a)
	return nil
}

// MarshalJSON merges the interpreted fields over the preserved Extra
// payload. Interpreted fields win on key collisions.
func (e Element) MarshalJSON() ([]byte, error) {
	merged := map[string]json.RawMessage{}
	if len(e.Extra) > 0 {
		if err := json.Unmarshal(e.Extra, &merged); err != nil {
			return nil, err
		}
	}
	known, err := json.Marshal(elementAlias(e))
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}
