package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type constrains how a setting's raw value may be interpreted.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeJSON    Type = "json"
)

var (
	// ErrInvalidType signals a type outside the known set.
	ErrInvalidType = errors.New("setting type is invalid")
	// ErrIncompatibleValue signals a raw value that does not parse as the
	// setting's declared type.
	ErrIncompatibleValue = errors.New("setting value does not match its type")
	// ErrInvalidKey signals an empty key.
	ErrInvalidKey = errors.New("setting key must not be empty")
)

// ValidType reports whether the value belongs to the known set.
func ValidType(t Type) bool {
	switch t {
	case TypeString, TypeInteger, TypeBoolean, TypeJSON:
		return true
	}
	return false
}

// Setting is one typed configuration entry. Value is stored as text and
// validated against Type on every write.
type Setting struct {
	Key       string
	Value     string
	Type      Type
	UpdatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSetting validates and builds a setting.
func NewSetting(key, value string, t Type, updatedBy *uuid.UUID) (*Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}
	if !ValidType(t) {
		return nil, ErrInvalidType
	}
	if err := checkValue(value, t); err != nil {
		return nil, err
	}
	return &Setting{Key: key, Value: value, Type: t, UpdatedBy: updatedBy}, nil
}

// TypedValue parses the raw value according to the declared type: string,
// int64, bool, or the decoded JSON document.
func (s *Setting) TypedValue() (any, error) {
	switch s.Type {
	case TypeString:
		return s.Value, nil
	case TypeInteger:
		parsed, err := strconv.ParseInt(strings.TrimSpace(s.Value), 10, 64)
		if err != nil {
			return nil, ErrIncompatibleValue
		}
		return parsed, nil
	case TypeBoolean:
		parsed, err := strconv.ParseBool(strings.TrimSpace(s.Value))
		if err != nil {
			return nil, ErrIncompatibleValue
		}
		return parsed, nil
	case TypeJSON:
		var doc any
		if err := json.Unmarshal([]byte(s.Value), &doc); err != nil {
			return nil, ErrIncompatibleValue
		}
		return doc, nil
	}
	return nil, ErrInvalidType
}

func checkValue(value string, t Type) error {
	switch t {
	case TypeString:
		return nil
	case TypeInteger:
		if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			return ErrIncompatibleValue
		}
	case TypeBoolean:
		if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
			return ErrIncompatibleValue
		}
	case TypeJSON:
		if !json.Valid([]byte(value)) {
			return ErrIncompatibleValue
		}
	}
	return nil
}
