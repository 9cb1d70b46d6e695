/*-------------------------------------------------------------------------
 *
 * jsonb.go
 *    JSONB column types
 *
 * Provides scanner/valuer types for jsonb columns: JSONBMap for object
 * payloads and JSONBValue for arbitrary scalar or structured values.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/jsonb.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

/* JSONBMap is a jsonb object column */
type JSONBMap map[string]interface{}

/* Value implements driver.Valuer */
func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb map: %w", err)
	}
	return b, nil
}

/* Scan implements sql.Scanner */
func (m *JSONBMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

/* FromMap converts a plain map to a JSONBMap */
func FromMap(m map[string]interface{}) JSONBMap {
	if m == nil {
		return nil
	}
	return JSONBMap(m)
}

/* JSONBValue is a jsonb column holding any JSON value, not just objects.
 * Proposed values are frequently plain strings or arrays. */
type JSONBValue struct {
	V interface{}
}

/* NewJSONBValue wraps a value for storage */
func NewJSONBValue(v interface{}) JSONBValue {
	return JSONBValue{V: v}
}

/* Value implements driver.Valuer */
func (j JSONBValue) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}
	return b, nil
}

/* Scan implements sql.Scanner */
func (j *JSONBValue) Scan(src interface{}) error {
	if src == nil {
		j.V = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(data) == 0 {
		j.V = nil
		return nil
	}
	return json.Unmarshal(data, &j.V)
}

/* MarshalJSON serializes the wrapped value directly */
func (j JSONBValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

/* UnmarshalJSON deserializes into the wrapped value */
func (j *JSONBValue) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.V)
}

/* String renders the value for email and preview templates */
func (j JSONBValue) String() string {
	switch v := j.V.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
