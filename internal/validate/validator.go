// Package validate holds input checks shared by the engine service and the CLI.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var pluginPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,128}$`)

// Plugin checks a plugin token such as "pslist" or "windows.pslist.PsList".
func Plugin(name string) error {
	if name == "" {
		return fmt.Errorf("plugin cannot be empty")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid plugin %q: must not start with '-'", name)
	}
	if !pluginPattern.MatchString(name) {
		return fmt.Errorf("invalid plugin %q (letters, digits, '.', '_', '-' only, max 128 chars)", name)
	}
	return nil
}

// ExtraArgs rejects arguments the child could not receive intact.
func ExtraArgs(args []string) error {
	for i, a := range args {
		if strings.ContainsAny(a, "\x00\n\r") {
			return fmt.Errorf("invalid characters in extra argument %d", i)
		}
	}
	return nil
}

// Path validates an image, output or dump path.
func Path(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsAny(p, "\x00\n\r") {
		return fmt.Errorf("invalid characters in path")
	}
	return nil
}

// OptionalPath is Path for fields that may be left empty.
func OptionalPath(p string) error {
	if p == "" {
		return nil
	}
	return Path(p)
}

// Profile validates a legacy engine profile name like Win7SP1x64.
func Profile(p string) error {
	if p == "" {
		return nil
	}
	if !pluginPattern.MatchString(p) {
		return fmt.Errorf("invalid profile %q", p)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// Limit clamps a listing limit
func Limit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// Days clamps a summary window
func Days(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
