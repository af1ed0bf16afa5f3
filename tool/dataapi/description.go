//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dataapi

import "strings"

// DefaultDescription is used when neither a template nor a custom text yields anything.
const DefaultDescription = "Data API fetching tool"

// DescriptionMode selects how a tool description is authored.
type DescriptionMode string

// Description modes.
const (
	DescriptionModeTemplate DescriptionMode = "template"
	DescriptionModeCustom   DescriptionMode = "custom"
)

// OutputField documents one column of the upstream response.
type OutputField struct {
	Name        string `json:"name" toml:"name"`
	Description string `json:"description,omitempty" toml:"description"`
}

// DescriptionTemplate holds the sections of a generated description.
// Only MainFunction is expected; empty sections are left out.
type DescriptionTemplate struct {
	MainFunction          string            `toml:"main_function"`
	DetailedDescription   string            `toml:"detailed_description"`
	InputFields           []FieldDescriptor `toml:"-"`
	OutputFields          []OutputField     `toml:"output_fields"`
	UseCases              string            `toml:"use_cases"`
	ParameterFillingGuide string            `toml:"parameter_filling_guide"`
	UsageExample          string            `toml:"usage_example"`
}

// Render formats the template as plain text.
func (t DescriptionTemplate) Render() string {
	var b strings.Builder
	b.WriteString(t.MainFunction)
	if t.DetailedDescription != "" {
		b.WriteString("\n\n" + t.DetailedDescription)
	}
	writeList(&b, "Input fields:", len(t.InputFields), func(i int) (string, string) {
		return t.InputFields[i].Name, t.InputFields[i].Description
	})
	writeList(&b, "Output fields:", len(t.OutputFields), func(i int) (string, string) {
		return t.OutputFields[i].Name, t.OutputFields[i].Description
	})
	if t.UseCases != "" {
		b.WriteString("\n\nUse cases: " + t.UseCases)
	}
	if t.ParameterFillingGuide != "" {
		b.WriteString("\n\nParameter filling guide:\n" + t.ParameterFillingGuide)
	}
	if t.UsageExample != "" {
		b.WriteString("\n\nUsage example:\n" + t.UsageExample)
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, n int, item func(int) (string, string)) {
	wroteHeading := false
	for i := 0; i < n; i++ {
		name, desc := item(i)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !wroteHeading {
			b.WriteString("\n\n" + heading)
			wroteHeading = true
		}
		b.WriteString("\n- " + name + ": " + desc)
	}
}

// ResolveDescription renders the template in template mode and returns custom
// otherwise, falling back to DefaultDescription when the result is empty.
func ResolveDescription(mode DescriptionMode, tmpl DescriptionTemplate, custom string) string {
	var desc string
	if mode == DescriptionModeTemplate {
		desc = tmpl.Render()
	} else {
		desc = custom
	}
	if desc == "" {
		return DefaultDescription
	}
	return desc
}
