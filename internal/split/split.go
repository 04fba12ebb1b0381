// Package split turns a raw SQL script into the ordered list of statements that make up a batch.
package split

import (
	"strings"
)

// DefaultDelimiter is the batch separator recognised by SQL Server tooling.
const DefaultDelimiter = "go"

// Split breaks text apart on every literal, case-sensitive occurrence of delimiter.
//
// Fragments that contain only whitespace are dropped, every other fragment is returned verbatim
// in its original order. The split is not SQL aware: a delimiter inside a string literal, a comment
// or an identifier such as "category" is still a split point.
func Split(text string, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	statements := []string{}
	for _, fragment := range strings.Split(text, delimiter) {
		if strings.TrimSpace(fragment) == "" {
			continue
		}

		statements = append(statements, fragment)
	}

	return statements
}
