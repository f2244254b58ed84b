package runsdb

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// VariableKey is server configuration variables stored in the database
type VariableKey string

const (
	VarBackendURL     VariableKey = "BackendURL"     // detection backend base URL
	VarImageryURL     VariableKey = "ImageryURL"     // facade imagery service base URL
	VarGeocodeURL     VariableKey = "GeocodeURL"     // geocoding service base URL
	VarBackendTimeout VariableKey = "BackendTimeout" // backend call timeout, in seconds
)

// AllVariables is every key that GetVariable/SetVariable will accept
var AllVariables = []VariableKey{VarBackendURL, VarImageryURL, VarGeocodeURL, VarBackendTimeout}

// ValidateVariable checks that key is known and value is acceptable for it.
// An empty value is always allowed, and means "revert to the default".
func ValidateVariable(key VariableKey, value string) error {
	known := false
	for _, k := range AllVariables {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown variable '%v'", key)
	}
	if value == "" {
		return nil
	}
	switch key {
	case VarBackendTimeout:
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("%v must be a positive number of seconds", key)
		}
	default:
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%v must be an http(s) URL", key)
		}
	}
	return nil
}

// GetVariable returns the variable's value, or "" if it has never been set
func (r *RunsDB) GetVariable(key VariableKey) (string, error) {
	v := Variable{}
	if err := r.DB.First(&v, "key = ?", string(key)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return v.Value, nil
}

func (r *RunsDB) SetVariable(key VariableKey, value string) error {
	value = strings.TrimSpace(value)
	return r.DB.Exec("INSERT INTO variable (key, value) VALUES ($1, $2) ON CONFLICT(key) DO UPDATE SET value = EXCLUDED.value", string(key), value).Error
}

// ListVariables returns every variable that has been set
func (r *RunsDB) ListVariables() ([]Variable, error) {
	values := []Variable{}
	if err := r.DB.Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}
