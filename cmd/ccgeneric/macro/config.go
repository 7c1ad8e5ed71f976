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
	"fmt"
	"regexp"
	"strconv"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CaseFold selects the casing applied to emitted argument-name fragments.
type CaseFold int

const (
	// Lower folds argument names to lower case (the default).
	Lower CaseFold = iota
	// Upper folds argument names to upper case.
	Upper
)

// ParseCaseFold accepts "lower" or "upper".
func ParseCaseFold(s string) (CaseFold, error) {
	switch s {
	case "", "lower":
		return Lower, nil
	case "upper":
		return Upper, nil
	}
	return Lower, &ConfigError{Option: "case-fold", Value: s, Reason: "want lower or upper"}
}

func (f CaseFold) String() string {
	if f == Upper {
		return "upper"
	}
	return "lower"
}

// Apply folds s. A Caser is not safe for reuse across goroutines, so one is
// built per call.
func (f CaseFold) Apply(s string) string {
	if f == Upper {
		return cases.Upper(language.Und).String(s)
	}
	return cases.Lower(language.Und).String(s)
}

// Config is the generation configuration shared by the imp and n emitters.
// It is treated as immutable once Validate has succeeded.
type Config struct {
	ParamCount        int      // 1 or 4
	MaxInstantiations int      // concrete type slots per generic point
	MaxTypeTags       int      // distinct type tags in the mangling cross product
	IncludeHeader     bool     // prepend the umbrella include
	Params            []string // explicit parameter names (defaulted when empty)
	Namespace         string   // prefix of namespaced identifiers
	TemplateHeader    string   // value of CC_GENERIC_TEMPLATE
	CaseFold          CaseFold
	Preserve          bool // skip the final parameter/mapping retraction
	Defaults          []OverrideSet
	Mappings          []NameMapping
}

// DefaultConfig returns the built-in option values.
func DefaultConfig() Config {
	return Config{
		ParamCount:        1,
		MaxInstantiations: 20,
		MaxTypeTags:       10,
		IncludeHeader:     true,
		Namespace:         "EXAMPLE",
		TemplateHeader:    "<ExampleTemplate.h>",
		CaseFold:          Lower,
	}
}

var (
	singleParams = []string{"T"}
	quadParams   = []string{"Tx", "Ty", "Tz", "Tw"}
	identRe      = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// ActiveParams returns the template parameter names in effect: the explicit
// Params truncated to ParamCount, padded from the defaults for ParamCount.
func (c *Config) ActiveParams() []string {
	defaults := singleParams
	if c.ParamCount != 1 {
		defaults = quadParams
	}
	params := make([]string, 0, c.ParamCount)
	for i := 0; i < c.ParamCount; i++ {
		switch {
		case i < len(c.Params):
			params = append(params, c.Params[i])
		case i < len(defaults):
			params = append(params, defaults[i])
		}
	}
	return params
}

// Validate checks every option against its domain.
func (c *Config) Validate() error {
	if c.ParamCount != 1 && c.ParamCount != 4 {
		return &ConfigError{Option: "param-count", Value: strconv.Itoa(c.ParamCount), Reason: "must be 1 or 4"}
	}
	if c.MaxInstantiations <= 0 {
		return &ConfigError{Option: "max-imps", Value: strconv.Itoa(c.MaxInstantiations), Reason: "must be positive"}
	}
	if c.MaxTypeTags <= 0 {
		return &ConfigError{Option: "max-types", Value: strconv.Itoa(c.MaxTypeTags), Reason: "must be positive"}
	}
	if !identRe.MatchString(c.Namespace) {
		return &ConfigError{Option: "namespace", Value: c.Namespace, Reason: "not an identifier"}
	}
	for _, p := range c.Params {
		if !identRe.MatchString(p) {
			return &ConfigError{Option: "param", Value: p, Reason: "not an identifier"}
		}
	}
	active := c.ActiveParams()
	if dup := lo.FindDuplicates(active); len(dup) > 0 {
		return &ConfigError{Option: "param", Value: dup[0], Reason: "declared more than once"}
	}
	for _, set := range c.Defaults {
		for _, p := range set.Params() {
			if !lo.Contains(active, p) {
				return &ConfigError{
					Option: "default",
					Value:  p,
					Reason: fmt.Sprintf("fallback set %d overrides a parameter outside %v", set.Index, active),
				}
			}
		}
	}
	for _, m := range c.Mappings {
		if !identRe.MatchString(m.Name) {
			return &ConfigError{Option: "map", Value: m.Name, Reason: "not an identifier"}
		}
	}
	return nil
}

// Table returns the default/mapping table described by the configuration.
func (c *Config) Table() *Table {
	return &Table{Namespace: c.Namespace, Sets: c.Defaults, Mappings: c.Mappings}
}
