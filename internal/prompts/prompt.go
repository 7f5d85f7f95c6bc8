// Package prompts manages the system prompts sent to the narrative
// generator at each triage stage. Every stage has built-in instructions
// that a named override stored in the database can replace, plus fixed
// output constraints that always follow the instructions.
package prompts

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prompt represents a named instruction override for a triage stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// CreateCommand carries the data needed to create a new prompt override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// UpdateCommand replaces every editable field of an existing override.
type UpdateCommand CreateCommand

// normalize trims the command in place and rejects an unknown stage or
// blank instructions.
func (c *CreateCommand) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructions = strings.TrimSpace(c.Instructions)

	if c.Name == "" {
		return ErrNameRequired
	}
	stage, err := ParseStage(string(c.Stage))
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.Stage)
	}
	c.Stage = stage
	if c.Instructions == "" {
		return ErrEmpty
	}
	return nil
}
