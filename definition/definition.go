// SPDX-License-Identifier: Apache-2.0

// Package definition builds processes from declarative YAML definitions.
//
// A definition names a pipeline and lists its steps. Each step is exactly one
// of:
//
//	use:     a registered operation, looked up in a [Registry]
//	set:     a fixed update, produced as soon as the step is reached
//	exit:    the exit signal, either `true` or a mapping used as the update
//	noop:    `true`, a step that does nothing
//	steps:   an inline sequence of steps, run as a nested process
//	switch:  a branch chosen by the value of a key (see [SwitchDef])
//	include: another definition, found by name through a [Loader]
//
// Any step may also carry a name, which wraps it with [process.Named]:
//
//	name: publish-item
//	steps:
//	  - use: fetch-item
//	  - name: route
//	    switch:
//	      key: newState
//	      options:
//	        published: [{use: publish}, {use: notify}]
//	        deleted: [{use: delete}, {exit: true}]
//	  - set: {audited: true}
//
// Parse and LoadFile check the structure of a document. Build resolves it
// against a Registry and a Loader into a [process.Process], failing with an
// error matching [process.ErrInitialization] for unknown operations, malformed
// steps and include cycles.
package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is a named, declarative pipeline.
type Definition struct {
	Name    string     `yaml:"name" validate:"required"`
	Options OptionsDef `yaml:"options"`
	Steps   []StepDef  `yaml:"steps" validate:"dive"`
}

// OptionsDef mirrors [process.Options].
type OptionsDef struct {
	DiscardInput bool `yaml:"discard_input"`
}

// StepDef is one step of a definition. Exactly one kind must be set.
type StepDef struct {
	Name    string         `yaml:"name,omitempty"`
	Use     string         `yaml:"use,omitempty"`
	Set     map[string]any `yaml:"set,omitempty"`
	Exit    *ExitDef       `yaml:"exit,omitempty"`
	Noop    bool           `yaml:"noop,omitempty"`
	Steps   []StepDef      `yaml:"steps,omitempty" validate:"omitempty,dive"`
	Switch  *SwitchDef     `yaml:"switch,omitempty"`
	Include string         `yaml:"include,omitempty"`
}

// kinds lists the step kinds that are set.
func (s *StepDef) kinds() []string {
	var kinds []string
	if s.Use != "" {
		kinds = append(kinds, "use")
	}
	if s.Set != nil {
		kinds = append(kinds, "set")
	}
	if s.Exit != nil {
		kinds = append(kinds, "exit")
	}
	if s.Noop {
		kinds = append(kinds, "noop")
	}
	if s.Steps != nil {
		kinds = append(kinds, "steps")
	}
	if s.Switch != nil {
		kinds = append(kinds, "switch")
	}
	if s.Include != "" {
		kinds = append(kinds, "include")
	}
	return kinds
}

// SwitchDef selects one branch by the value of Key in the current state.
//
// Values that match no option, and a missing key, run Fallback, or nothing
// when Fallback is empty.
type SwitchDef struct {
	Key      string               `yaml:"key" validate:"required"`
	Options  map[string][]StepDef `yaml:"options" validate:"required"`
	Fallback []StepDef            `yaml:"fallback,omitempty" validate:"omitempty,dive"`
}

// ExitDef is the exit signal of a step, with an optional update.
//
// In YAML it is written either as `exit: true` or as a mapping:
//
//	exit: {reason: unchanged}
type ExitDef struct {
	Output map[string]any
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (e *ExitDef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var enabled bool
		if err := value.Decode(&enabled); err != nil || !enabled {
			return fmt.Errorf("line %d: exit must be true or a mapping", value.Line)
		}
		e.Output = nil
		return nil
	case yaml.MappingNode:
		return value.Decode(&e.Output)
	default:
		return fmt.Errorf("line %d: exit must be true or a mapping", value.Line)
	}
}

// MarshalYAML implements [yaml.Marshaler].
func (e ExitDef) MarshalYAML() (any, error) {
	if e.Output == nil {
		return true, nil
	}
	return e.Output, nil
}
