package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/accord/internal/database"
)

// errUnexpectedFormat is returned when a SurrealDB result has an unknown shape
var errUnexpectedFormat = errors.New("unexpected result format")

// formatTime renders t for a <datetime> cast
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionalTime renders t for a <datetime> cast, or nil when t is unset
func optionalTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

// parseTime parses time from various formats
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// extractQueryResults extracts the records of the last statement of a
// SurrealDB response
func extractQueryResults(results []interface{}) []interface{} {
	if len(results) == 0 {
		return nil
	}
	if resp, ok := results[len(results)-1].(map[string]interface{}); ok {
		if records, ok := resp["result"].([]interface{}); ok {
			return records
		}
		return nil
	}
	return results
}

// asRecord unwraps a single QueryOne result into a record map
func asRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %T", errUnexpectedFormat, result)
	}
	return data, nil
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return extractCountValue(m[key])
}

// getFloat extracts a float value from a map
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int, int64, uint64:
		return float64(extractCountValue(v))
	}
	return 0
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts an optional time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	t := parseTime(m[key])
	if t.IsZero() {
		return nil
	}
	return &t
}

// toDocument converts a tagged struct into the plain map/slice form sent as a
// query variable
func toDocument(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fromDocument decodes a record field back into a tagged struct
func fromDocument(doc interface{}, out interface{}) error {
	if doc == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
