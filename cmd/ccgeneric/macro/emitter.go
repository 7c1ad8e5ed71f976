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
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Emitter lays out the generic implementation header. Stages are emitted in
// a fixed order: later stages #undef or redefine names set by earlier ones.
type Emitter struct {
	cfg    *Config
	table  *Table
	params []string
	out    []Directive
}

// NewEmitter creates an emitter for a validated configuration.
func NewEmitter(cfg *Config) *Emitter {
	return &Emitter{cfg: cfg, table: cfg.Table(), params: cfg.ActiveParams()}
}

// Emit returns the complete directive sequence for the resolved symbols.
func (e *Emitter) Emit(resolved []Resolved) []Directive {
	e.out = nil
	e.header()
	e.mappings()
	e.symbols(resolved)
	e.typeLists()
	e.mangleGuards()
	e.mangleTags()
	e.countSelection()
	e.typeTables()
	e.retract()
	return e.out
}

func (e *Emitter) emit(d ...Directive) { e.out = append(e.out, d...) }

func (e *Emitter) ns(p string) string { return e.cfg.Namespace + "_" + p }

func (e *Emitter) header() {
	if e.cfg.IncludeHeader {
		e.emit(Include{Path: "<CommonC/Generics.h>"}, Blank{})
	}
}

func (e *Emitter) mappings() {
	defined := e.table.Defined()
	for _, m := range defined {
		e.emit(Cond{Kind: "ifndef", Expr: m.Name, Body: []Directive{Define{Name: m.Name, Body: m.Value}}})
	}
	if len(defined) > 0 {
		e.emit(Blank{})
	}
}

func (e *Emitter) symbols(resolved []Resolved) {
	fold := e.cfg.CaseFold.Apply
	var calls, refs []Directive
	for i := range resolved {
		r := &resolved[i]
		name := r.Symbol.TemplateRef
		if r.Variadic {
			arg := fold(VariadicArg)
			refs = append(refs, Define{
				Name:   name + "_Ref",
				Params: []string{arg},
				Body:   e.table.DispatchExpr(r, []string{dispatchKey(arg)}),
			})
			continue
		}
		args := lo.Map(r.ArgNames, func(a string, _ int) string { return fold(a) })
		list := strings.Join(args, ", ")
		calls = append(calls, Define{Name: name, Params: args, Body: fmt.Sprintf("%s_Ref(%s)(%s)", name, list, list)})

		keys := lo.Map(r.Bindings, func(b Binding, _ int) string { return dispatchKey(fold(b.Arg)) })
		refs = append(refs, Define{Name: name + "_Ref", Params: args, Body: e.table.DispatchExpr(r, keys)})
	}
	if len(calls) > 0 {
		e.emit(calls...)
		e.emit(Blank{})
	}
	if len(refs) > 0 {
		e.emit(refs...)
		e.emit(Blank{})
	}
}

func (e *Emitter) typeLists() {
	for _, p := range e.params {
		e.emit(Define{
			Name: e.ns(p),
			Body: fmt.Sprintf("CC_GENERIC_INDEXED_TYPE_LIST(%s, %s)", e.ns(p), e.ns("COUNT")),
		})
	}
	e.emit(Blank{})
}

// mangleGuards emits the per-slot mangle macros. They are guarded so a
// translation unit can predefine a single slot.
func (e *Emitter) mangleGuards() {
	for i := 0; i < e.cfg.MaxInstantiations; i++ {
		for _, p := range e.params {
			name := fmt.Sprintf("CC_MANGLE_TYPE_%s%d", e.ns(p), i)
			e.emit(Cond{Kind: "ifndef", Expr: name, Body: []Directive{
				Define{Name: name, Body: e.ns(p) + strconv.Itoa(i)},
			}}, Blank{})
		}
	}
}

func (e *Emitter) mangleTags() {
	for _, p := range e.params {
		for i := 0; i < e.cfg.MaxInstantiations; i++ {
			for t := 0; t < e.cfg.MaxTypeTags; t++ {
				e.emit(Define{
					Name: fmt.Sprintf("CC_MANGLE_TYPE_%d_%s%d", t, e.ns(p), i),
					Body: fmt.Sprintf("CC_MANGLE_TYPE_%s%d", e.ns(p), i),
				})
			}
		}
		e.emit(Blank{})
	}
}

// countSelection plugs the namespace into the Generic<N> table, retracts
// the slots above the realized count and picks the count. The ladder ends
// in #error so an unsupported count fails the C build.
func (e *Emitter) countSelection() {
	count := e.ns("COUNT")
	e.emit(
		Cond{Kind: "ifdef", Expr: count, Body: []Directive{Define{Name: "CC_GENERIC_COUNT", Body: count}}},
		Blank{},
		Undef{Name: "CC_GENERIC_TYPE"},
		Undef{Name: "CC_GENERIC_TEMPLATE"},
		Define{Name: "CC_GENERIC_TYPE", Body: e.cfg.Namespace},
		Define{Name: "CC_GENERIC_TEMPLATE", Body: e.cfg.TemplateHeader},
		Include{Path: fmt.Sprintf("<CommonC/Generic%d.h>", e.cfg.ParamCount)},
		Blank{},
	)

	for i := 0; i < e.cfg.MaxInstantiations; i++ {
		body := lo.Map(e.params, func(p string, _ int) Directive {
			return Undef{Name: fmt.Sprintf("CC_MANGLE_TYPE_%s%d", e.ns(p), i)}
		})
		e.emit(Cond{Kind: "if", Expr: fmt.Sprintf("CC_GENERIC_COUNT < %d", i+1), Body: body}, Blank{})
	}
	e.emit(Undef{Name: count}, Blank{})

	e.emit(CountLadder(e.cfg.MaxInstantiations, 1, func(k int) []Directive {
		return []Directive{Define{Name: count, Body: strconv.Itoa(k)}}
	}), Blank{})
	e.emit(Undef{Name: "CC_GENERIC_COUNT"})
}

func (e *Emitter) typeTables() {
	for _, p := range e.params {
		e.emit(Blank{})
		for i := 0; i < e.cfg.MaxInstantiations; i++ {
			e.emit(Define{
				Name:   fmt.Sprintf("CC_TYPE_%s%d", e.ns(p), i),
				Params: []string{"..."},
				Body:   e.ns(p) + strconv.Itoa(i),
			})
		}
		for i := 0; i < e.cfg.MaxInstantiations; i++ {
			for t := 0; t < e.cfg.MaxTypeTags; t++ {
				e.emit(Define{
					Name: fmt.Sprintf("CC_TYPE_%d_%s%d", t, e.ns(p), i),
					Body: fmt.Sprintf("CC_TYPE_%s%d,", e.ns(p), i),
				})
			}
		}
	}
}

func (e *Emitter) retract() {
	if e.cfg.Preserve {
		return
	}
	names := lo.Map(e.params, func(p string, _ int) string { return e.ns(p) })
	names = append(names, e.table.Retracted(e.params)...)
	e.emit(Blank{})
	for _, n := range names {
		e.emit(Undef{Name: n})
	}
}

// CountLadder builds `#if CC_GENERIC_COUNT == first` ... for n branches
// with an #error fallthrough.
func CountLadder(n, first int, body func(k int) []Directive) Ladder {
	l := Ladder{Else: []Directive{Error{Message: "Add additional cases"}}}
	for k := first; k < first+n; k++ {
		l.Branches = append(l.Branches, Branch{Expr: fmt.Sprintf("CC_GENERIC_COUNT == %d", k), Body: body(k)})
	}
	return l
}

func dispatchKey(arg string) string { return "((typeof(" + arg + ")){0})" }
