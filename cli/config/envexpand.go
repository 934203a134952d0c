// Package config loads emotes.yaml and the EMOTES_* environment overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// placeholder matches $${...} escapes and ${NAME}, ${NAME:-default} and
// ${NAME:?message} references.
var placeholder = regexp.MustCompile(`\$\$\{|\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// MissingVarError reports a ${NAME:?message} reference to an unset or
// empty variable.
type MissingVarError struct {
	Name    string
	Message string
}

func (e *MissingVarError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("required variable %s is not set", e.Name)
	}
	return fmt.Sprintf("required variable %s is not set: %s", e.Name, e.Message)
}

// ExpandEnv substitutes environment references in a config document:
//
//	${NAME}           value of NAME, empty when unset
//	${NAME:-default}  value of NAME, or default when unset or empty
//	${NAME:?message}  value of NAME, or a *MissingVarError
//	$${NAME}          the literal text ${NAME}
//
// Every missing required variable is reported, joined.
func ExpandEnv(input string) (string, error) {
	var errs []error
	var b strings.Builder
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(input, -1) {
		b.WriteString(input[last:m[0]])
		last = m[1]

		if input[m[0]:m[1]] == "$${" {
			b.WriteString("${")
			continue
		}
		name := input[m[2]:m[3]]
		var op, arg string
		if m[4] >= 0 {
			op, arg = input[m[4]:m[5]], input[m[6]:m[7]]
		}

		if v := os.Getenv(name); v != "" {
			b.WriteString(v)
			continue
		}
		switch op {
		case ":-":
			b.WriteString(arg)
		case ":?":
			errs = append(errs, &MissingVarError{Name: name, Message: arg})
		}
	}
	b.WriteString(input[last:])
	return b.String(), errors.Join(errs...)
}
