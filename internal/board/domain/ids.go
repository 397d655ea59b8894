package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewPersonID returns a fresh person identifier.
func NewPersonID() string { return prefixedID("person_", 10) }

// NewTaskID returns a fresh task identifier.
func NewTaskID() string { return prefixedID("task_", 12) }

// NewTemplateID returns a fresh template identifier.
func NewTemplateID() string { return prefixedID("tpl_", 10) }

func prefixedID(prefix string, length int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + hex[:length]
}
