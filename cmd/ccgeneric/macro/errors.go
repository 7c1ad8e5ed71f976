// Copyright 2025 ccgeneric Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package macro

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption is wrapped by every ConfigError.
	ErrInvalidOption = errors.New("invalid option")

	// ErrUnresolvedTemplate reports a symbol whose CC_TEMPLATE_REF names a
	// template that is not in the catalog.
	ErrUnresolvedTemplate = errors.New("unresolved template reference")

	// ErrMalformedTemplate reports a template declaration whose argument
	// list cannot be located after the referenced name.
	ErrMalformedTemplate = errors.New("malformed template declaration")

	// ErrUnbound reports a symbol whose template names no active parameter,
	// for which no call argument matched a slot holding one, or whose
	// argument matched a slot with no declared name.
	ErrUnbound = errors.New("no generic argument binding")
)

// ConfigError is an option value outside its domain.
type ConfigError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("option %s: %s", e.Option, e.Reason)
	}
	return fmt.Sprintf("option %s=%q: %s", e.Option, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidOption }

// ResolutionError is a symbol that could not be bound to its template.
type ResolutionError struct {
	Symbol   string // macro name of the symbol declaration
	Template string // referenced template name
	Line     int    // 1-based line of the symbol in the template source
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("line %d: symbol %s -> %s: %v", e.Line, e.Symbol, e.Template, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
