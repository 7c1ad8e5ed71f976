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
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Formatter transforms the type-list argument of one dispatch parameter.
// The zero value is the identity.
type Formatter struct {
	Pointers int // levels of indirection from a PTYPE(...) marker
}

// Apply wraps list for pointer-typed slots.
func (f Formatter) Apply(list string) string {
	if f.Pointers == 0 {
		return list
	}
	return fmt.Sprintf("CC_GENERIC_PTYPE_%d(%s)", f.Pointers, list)
}

// Binding ties one generic dispatch key to a template parameter.
type Binding struct {
	Arg       string // declared template argument name used as dispatch key
	Param     string // template parameter (T, Tx, ...) in the bound slot
	Slot      int    // position in the template's declared argument list
	Formatter Formatter
}

// Resolved is a symbol bound to its template.
type Resolved struct {
	Symbol   SymbolDecl
	Template *TemplateDecl
	Variadic bool     // template has no parenthesized argument list
	ArgNames []string // declared template argument names, unfolded
	Params   []string // active parameters in order of first appearance
	Bindings []Binding
}

// VariadicArg is the single argument name of a catch-all reference macro.
const VariadicArg = "t"

var (
	ptypeRe    = regexp.MustCompile(`PTYPE\(([^)]*)\)`)
	argNamesRe = regexp.MustCompile(`\w+,|\w+$`)
)

// Resolve binds every symbol of cat. All failures are returned together;
// the result is only usable when the error is nil.
func Resolve(cat *Catalog, params []string) ([]Resolved, error) {
	var (
		out  []Resolved
		errs []error
	)
	for _, sym := range cat.Symbols {
		r, err := resolveSymbol(cat, sym, params)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func resolveSymbol(cat *Catalog, sym SymbolDecl, params []string) (Resolved, error) {
	fail := func(err error) (Resolved, error) {
		return Resolved{}, &ResolutionError{Symbol: sym.Macro, Template: sym.TemplateRef, Line: sym.Line, Err: err}
	}

	decl, ok := cat.Lookup(sym.TemplateRef)
	if !ok {
		return fail(ErrUnresolvedTemplate)
	}

	r := Resolved{
		Symbol:   sym,
		Template: decl,
		Params:   templateParams(decl.Text, params),
	}
	if len(r.Params) == 0 {
		return fail(fmt.Errorf("%w: %s names none of %v", ErrUnbound, sym.TemplateRef, params))
	}

	delim, ok := delimiterAfter(decl.Text, sym.TemplateRef)
	if !ok {
		return fail(fmt.Errorf("%w: no delimiter after %s", ErrMalformedTemplate, sym.TemplateRef))
	}

	if delim == ')' {
		r.Variadic = true
		r.Bindings = []Binding{{Arg: VariadicArg, Param: lo.FirstOrEmpty(r.Params)}}
		return r, nil
	}

	names, ok := declaredArgNames(decl.Text, sym.TemplateRef)
	if !ok {
		return fail(fmt.Errorf("%w: no argument list after %s", ErrMalformedTemplate, sym.TemplateRef))
	}
	r.ArgNames = names

	var slotTypes []string
	if len(sym.TemplateArgTypes) > 0 {
		slotTypes = sym.TemplateArgTypes[1:]
	}
	for _, arg := range sym.CallArgs {
		i := slices.IndexFunc(slotTypes, func(t string) bool {
			return t == arg || containsToken(t, arg)
		})
		if i < 0 {
			continue
		}
		if i >= len(names) {
			return fail(fmt.Errorf("%w: argument %s matches slot %d but %s declares %d arguments",
				ErrUnbound, arg, i, sym.TemplateRef, len(names)))
		}
		// A slot without a template parameter has nothing to dispatch on.
		param := slotParam(decl, i, params)
		if param == "" {
			continue
		}
		r.Bindings = append(r.Bindings, Binding{
			Arg:       names[i],
			Param:     param,
			Slot:      i,
			Formatter: formatterFor(slotTypes[i]),
		})
	}
	if len(r.Bindings) == 0 {
		return fail(fmt.Errorf("%w: none of %v match a slot of %v holding one of %v",
			ErrUnbound, sym.CallArgs, slotTypes, r.Params))
	}

	slices.SortStableFunc(r.Bindings, func(a, b Binding) int { return a.Slot - b.Slot })
	return r, nil
}

// templateParams lists the active parameters appearing as whole tokens in
// text, in order of first appearance.
func templateParams(text string, params []string) []string {
	var found []string
	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		if loc[0] == 0 || loc[1] == len(text) {
			continue
		}
		if tok := text[loc[0]:loc[1]]; lo.Contains(params, tok) {
			found = append(found, tok)
		}
	}
	return lo.Uniq(found)
}

// delimiterAfter returns the first of ',', '(' or ')' that follows name,
// skipping only non-word characters.
func delimiterAfter(text, name string) (byte, bool) {
	re := regexp.MustCompile(`\W` + regexp.QuoteMeta(name) + `\W*?[,()]`)
	m := re.FindString(text)
	if m == "" {
		return 0, false
	}
	return m[len(m)-1], true
}

// declaredArgNames extracts the argument names from the parenthesized list
// following name: each word directly followed by a comma, plus the final
// word of the list.
func declaredArgNames(text, name string) ([]string, bool) {
	re := regexp.MustCompile(`\W` + regexp.QuoteMeta(name))
	loc := re.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	tail := strings.TrimSuffix(text[loc[1]:], ")")
	lparen, rparen := strings.Index(tail, "("), strings.LastIndex(tail, ")")
	if lparen < 0 || rparen <= lparen {
		return nil, false
	}
	list := tail[lparen+1 : rparen]
	return lo.Map(argNamesRe.FindAllString(list, -1), func(s string, _ int) string {
		return strings.TrimSuffix(s, ",")
	}), true
}

// slotParam returns the first active parameter named in the template's
// declared slot i.
func slotParam(decl *TemplateDecl, i int, params []string) string {
	if i >= len(decl.Slots) {
		return ""
	}
	for _, tok := range wordRe.FindAllString(decl.Slots[i], -1) {
		if lo.Contains(params, tok) {
			return tok
		}
	}
	return ""
}

func formatterFor(slotType string) Formatter {
	m := ptypeRe.FindStringSubmatch(slotType)
	if m == nil {
		return Formatter{}
	}
	return Formatter{Pointers: strings.Count(m[1], "*")}
}

// FormatterFor returns the formatter of the first binding on param.
func (r *Resolved) FormatterFor(param string) Formatter {
	for _, b := range r.Bindings {
		if b.Param == param {
			return b.Formatter
		}
	}
	return Formatter{}
}
