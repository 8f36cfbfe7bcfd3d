package types

import (
	"database/sql/driver"
	"fmt"
)

// GenericStructValue can be set as the Value() func for any json column
func GenericStructValue[T any](t T, defaultNull bool) (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	if defaultNull && (string(b) == "{}" || string(b) == "null" || string(b) == "[]") {
		return nil, nil
	}
	return string(b), nil
}

// GenericStructScan can be set as the Scan(val) func for any json column
func GenericStructScan[T any](t *T, val any) error {
	if val == nil {
		var zero T
		*t = zero
		return nil
	}

	var ba []byte
	switch v := val.(type) {
	case []byte:
		ba = v
	case string:
		ba = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSON value: %v", val)
	}
	return json.Unmarshal(ba, t)
}
