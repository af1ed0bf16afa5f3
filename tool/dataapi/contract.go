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
	"fmt"
	"maps"
	"slices"
	"strings"

	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
)

// Names and defaults of the fields every contract carries.
const (
	FieldLimit            = "limit"
	FieldOffset           = "offset"
	FieldAdditionalFields = "additionalFields"

	DefaultLimit  = 10
	DefaultOffset = 0
)

// FieldSpec is one entry of a synthesized contract.
type FieldSpec struct {
	Name        string
	Description string
	Kind        FieldKind
	// Required fields must be present in the arguments.
	Required bool
	// Default is applied when the field is absent. Only meaningful if HasDefault.
	Default    any
	HasDefault bool
}

// Contract validates and coerces tool arguments. It is immutable and safe for
// concurrent use.
type Contract struct {
	fields []FieldSpec
	index  map[string]int
}

// Synthesize builds a contract from descriptors. Blank names are skipped and a
// later descriptor replaces an earlier one of the same name. limit, offset and
// additionalFields are always added, overriding descriptors of those names.
func Synthesize(descriptors []FieldDescriptor) *Contract {
	c := &Contract{index: make(map[string]int, len(descriptors)+3)}
	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		spec := FieldSpec{
			Name:        name,
			Description: d.Description,
			Kind:        normalizeKind(d.Kind),
		}
		switch {
		case d.Default != nil:
			spec.Default, spec.HasDefault = d.Default, true
			if v, msg := check(spec.Kind, d.Default); msg == "" {
				spec.Default = v
			}
		case d.Required:
			spec.Required = true
		}
		c.put(spec)
	}
	c.put(FieldSpec{
		Name:        FieldLimit,
		Description: "Maximum number of records to return",
		Kind:        KindNumber,
		Default:     float64(DefaultLimit),
		HasDefault:  true,
	})
	c.put(FieldSpec{
		Name:        FieldOffset,
		Description: "Number of records to skip",
		Kind:        KindNumber,
		Default:     float64(DefaultOffset),
		HasDefault:  true,
	})
	c.put(FieldSpec{
		Name:        FieldAdditionalFields,
		Description: "Extra parameters passed through unchanged",
		Kind:        KindObject,
	})
	return c
}

func (c *Contract) put(spec FieldSpec) {
	if i, ok := c.index[spec.Name]; ok {
		c.fields[i] = spec
		return
	}
	c.index[spec.Name] = len(c.fields)
	c.fields = append(c.fields, spec)
}

// Fields returns a copy of the contract fields in declaration order.
func (c *Contract) Fields() []FieldSpec {
	out := make([]FieldSpec, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field returns the named field.
func (c *Contract) Field(name string) (FieldSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return c.fields[i], true
}

// Validate checks args and returns a new map holding the coerced values and
// the defaults of absent fields. Unknown keys are dropped.
func (c *Contract) Validate(args map[string]any) (map[string]any, error) {
	return c.validate(args, false)
}

// ValidateStrict is Validate with unknown keys reported as issues.
func (c *Contract) ValidateStrict(args map[string]any) (map[string]any, error) {
	return c.validate(args, true)
}

func (c *Contract) validate(args map[string]any, strict bool) (map[string]any, error) {
	out := make(map[string]any, len(c.fields))
	var issues []Issue
	for _, f := range c.fields {
		v, present := args[f.Name]
		if !present {
			switch {
			case f.HasDefault:
				out[f.Name] = f.Default
			case f.Required:
				issues = append(issues, Issue{Field: f.Name, Message: "required"})
			}
			continue
		}
		coerced, msg := check(f.Kind, v)
		if msg != "" {
			issues = append(issues, Issue{Field: f.Name, Message: msg})
			continue
		}
		out[f.Name] = coerced
	}
	if strict {
		for _, k := range slices.Sorted(maps.Keys(args)) {
			if _, ok := c.index[k]; !ok {
				issues = append(issues, Issue{Field: k, Message: "unrecognized key"})
			}
		}
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

// Schema renders the contract as a JSON object schema.
func (c *Contract) Schema() *tool.Schema {
	s := &tool.Schema{
		Type:       "object",
		Properties: make(map[string]*tool.Schema, len(c.fields)),
	}
	for _, f := range c.fields {
		s.Properties[f.Name] = fieldSchema(f)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldSchema(f FieldSpec) *tool.Schema {
	fs := &tool.Schema{Description: f.Description}
	switch f.Kind {
	case KindDate:
		fs.Type = "string"
		fs.Format = "date"
		fs.Pattern = DatePattern
	case KindObject:
		fs.Type = "object"
		fs.AdditionalProperties = true
	default:
		fs.Type = string(f.Kind)
	}
	if f.HasDefault {
		fs.Default = f.Default
	}
	return fs
}

// validateDefaults reports the first descriptor default that its own kind rejects.
func validateDefaults(descriptors []FieldDescriptor) (string, error) {
	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" || d.Default == nil {
			continue
		}
		if _, msg := check(normalizeKind(d.Kind), d.Default); msg != "" {
			return name, fmt.Errorf("invalid default value: %s", msg)
		}
	}
	return "", nil
}
