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
	"regexp"
	"strings"
)

var toolNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NormalizeToolName turns a display name such as "Daily Quotes" into "Daily_Quotes".
func NormalizeToolName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// ValidateToolName accepts letters, digits and underscores, not starting with a digit.
func ValidateToolName(name string) error {
	if !toolNameRe.MatchString(name) {
		return ErrInvalidToolName
	}
	return nil
}
