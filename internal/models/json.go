package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a free-form metadata bag stored as a jsonb column
type JSON map[string]interface{}

// Value implements driver.Valuer for GORM
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for GORM
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSON column")
	}

	return json.Unmarshal(data, j)
}
