//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dataapi

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

// FieldKind is the value type of a declared field.
type FieldKind string

// Field kinds. KindObject is reserved for the implicit additionalFields entry.
const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindDate    FieldKind = "date"
	KindObject  FieldKind = "object"
)

// DatePattern is the only accepted shape of a date field.
const DatePattern = `^\d{4}-\d{2}-\d{2}$`

var dateRe = regexp.MustCompile(DatePattern)

// FieldDescriptor declares one input parameter of a data API tool.
// A non-nil Default makes the field optional whatever Required says.
type FieldDescriptor struct {
	Name        string    `json:"name" toml:"name"`
	Description string    `json:"description,omitempty" toml:"description"`
	Kind        FieldKind `json:"kind,omitempty" toml:"kind"`
	Required    bool      `json:"required,omitempty" toml:"required"`
	Default     any       `json:"default,omitempty" toml:"default"`
}

// normalizeKind maps empty and unknown kinds to string.
func normalizeKind(k FieldKind) FieldKind {
	switch k {
	case KindNumber, KindBoolean, KindDate:
		return k
	default:
		return KindString
	}
}

// check validates v against kind and returns the coerced value or an issue message.
func check(kind FieldKind, v any) (any, string) {
	switch kind {
	case KindNumber:
		if f, ok := toFloat(v); ok {
			return f, ""
		}
		return nil, expected("number", v)
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, ""
		}
		return nil, expected("boolean", v)
	case KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, expected("string", v)
		}
		if !dateRe.MatchString(s) {
			return nil, "date must be in YYYY-MM-DD format"
		}
		return s, ""
	case KindObject:
		if m, ok := v.(map[string]any); ok {
			return m, ""
		}
		return nil, expected("object", v)
	default:
		if s, ok := v.(string); ok {
			return s, ""
		}
		return nil, expected("string", v)
	}
}

func expected(want string, got any) string {
	return fmt.Sprintf("expected %s, received %s", want, typeName(got))
}

// toFloat accepts the numeric types produced by encoding/json, config
// decoders and Go callers. NaN and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
