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
	"slices"
	"strings"

	"github.com/samber/lo"
)

// OverrideSet is one fallback layer: parameters mapped to replacement type
// lists. Layers are tried in Index order, each nested in the previous
// layer's no-match branch.
type OverrideSet struct {
	Index     int
	Overrides map[string]string
}

// Params returns the overridden parameter names, sorted.
func (s OverrideSet) Params() []string {
	keys := lo.Keys(s.Overrides)
	slices.Sort(keys)
	return keys
}

// ParseOverrideSet parses "P=type[,P=type...]" into the layer at index.
func ParseOverrideSet(index int, s string) (OverrideSet, error) {
	set := OverrideSet{Index: index, Overrides: make(map[string]string)}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return OverrideSet{}, &ConfigError{Option: "default", Value: part, Reason: "want PARAM=TYPE"}
		}
		set.Overrides[name] = value
	}
	if len(set.Overrides) == 0 {
		return OverrideSet{}, &ConfigError{Option: "default", Value: s, Reason: "empty fallback set"}
	}
	return set, nil
}

// NameMapping is an external name defined ahead of the generated macros.
type NameMapping struct {
	Name  string
	Value string
}

// ParseNameMapping parses "NAME[=VALUE]". Entries without a value are
// placeholders and report ok == false.
func ParseNameMapping(s string) (m NameMapping, ok bool) {
	name, value, _ := strings.Cut(s, "=")
	m = NameMapping{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
	return m, m.Name != "" && m.Value != ""
}

// Table holds the fallback layers and name mappings of one run.
type Table struct {
	Namespace string
	Sets      []OverrideSet
	Mappings  []NameMapping
}

// Defined returns the mappings that carry a value, in input order.
func (t *Table) Defined() []NameMapping {
	return lo.Filter(t.Mappings, func(m NameMapping, _ int) bool {
		return m.Name != "" && m.Value != ""
	})
}

// Retracted returns the mapping names to #undef at the end of emission.
// Names colliding with a template parameter, bare or namespaced, keep their
// own lifecycle.
func (t *Table) Retracted(params []string) []string {
	names := lo.FilterMap(t.Defined(), func(m NameMapping, _ int) (string, bool) {
		for _, p := range params {
			if m.Name == p || m.Name == t.Namespace+"_"+p {
				return "", false
			}
		}
		return m.Name, true
	})
	return lo.Uniq(names)
}

// TypeList returns the type-list argument for param at fallback depth.
// Depth -1 is the primary match.
func (t *Table) TypeList(param string, depth int) string {
	if depth >= 0 && depth < len(t.Sets) {
		if v, ok := t.Sets[depth].Overrides[param]; ok {
			return v
		}
	}
	return t.Namespace + "_" + param
}

// Unused returns the indexes of fallback layers that override none of
// params. Such a layer repeats the primary match.
func (t *Table) Unused(params []string) []int {
	var idx []int
	for i, set := range t.Sets {
		if !lo.SomeBy(params, func(p string) bool { _, ok := set.Overrides[p]; return ok }) {
			idx = append(idx, i)
		}
	}
	return idx
}

// GenericMatch is the sentinel closing every dispatch chain.
const GenericMatch = "CC_GENERIC_MATCH"

// Layer is one CC_GENERIC invocation of a dispatch chain.
type Layer struct {
	Macro string   // CC_GENERIC or CC_RECURSIVE_<r>_GENERIC
	Lists []string // one formatted type list per template parameter
	Next  *Layer   // nil terminates with GenericMatch
}

// render writes the layer and everything nested below it.
func (l *Layer) render(keys, target string) string {
	next := GenericMatch
	if l.Next != nil {
		next = l.Next.render(keys, target)
	}
	lists := lo.Map(l.Lists, func(s string, _ int) string { return "(" + s + ")" })
	return fmt.Sprintf("%s(%s, %s, %s, %s)", l.Macro, keys, target, next, strings.Join(lists, ", "))
}

// Depth counts the fallback layers below l.
func (l *Layer) Depth() int {
	n := 0
	for cur := l.Next; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// Chain builds the right-nested dispatch chain for r: the primary match on
// the namespaced type lists, then one CC_RECURSIVE_<depth>_GENERIC layer per
// fallback set.
func (t *Table) Chain(r *Resolved) *Layer {
	lists := func(depth int) []string {
		return lo.Map(r.Params, func(p string, _ int) string {
			return r.FormatterFor(p).Apply(t.TypeList(p, depth))
		})
	}
	root := &Layer{Macro: "CC_GENERIC", Lists: lists(-1)}
	tail := root
	for depth := range t.Sets {
		tail.Next = &Layer{Macro: fmt.Sprintf("CC_RECURSIVE_%d_GENERIC", depth), Lists: lists(depth)}
		tail = tail.Next
	}
	return root
}

// DispatchExpr renders the chain of r with the given dispatch keys.
func (t *Table) DispatchExpr(r *Resolved, keys []string) string {
	return t.Chain(r).render("("+strings.Join(keys, ", ")+")", r.Symbol.Macro)
}
