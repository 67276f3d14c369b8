package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// rawRowFieldMap caches JSON tag -> struct field index mappings
var (
	rawRowFieldMap     map[string]int
	rawRowFieldMapOnce sync.Once
)

func getRawRowFieldMap() map[string]int {
	rawRowFieldMapOnce.Do(func() {
		t := reflect.TypeOf(RawRow{})
		rawRowFieldMap = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			rawRowFieldMap[name] = i
		}
	})
	return rawRowFieldMap
}

// UnmarshalJSON implements flexible JSON unmarshaling that accepts both
// string-encoded and native JSON values. Feed exports serialize numeric
// columns as raw numbers while manual entry sends quoted strings; either
// way the value lands in the string field and the cleaner does the parsing.
func (rr *RawRow) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias RawRow
	a := (*Alias)(rr)

	// Fast path: try standard unmarshal (works when all values are strings)
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	// Slow path: field-by-field with native-to-string coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fieldMap := getRawRowFieldMap()
	v := reflect.ValueOf(a).Elem()

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		var s string
		if err := json.Unmarshal(rawVal, &s); err == nil {
			fv.SetString(s)
			continue
		}

		// Number, bool or null: keep the raw token as text
		tok := strings.TrimSpace(string(rawVal))
		if tok == "null" {
			continue
		}
		fv.SetString(tok)
	}

	return nil
}
