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
)

// EmitGenericN returns the body of CommonC/Generic<N>.h: the table the
// implementation header includes after setting CC_GENERIC_TYPE,
// CC_GENERIC_TEMPLATE and CC_GENERIC_COUNT.
func EmitGenericN(cfg *Config) []Directive {
	params := cfg.ActiveParams()
	var out []Directive
	emit := func(d ...Directive) { out = append(out, d...) }

	if cfg.IncludeHeader {
		emit(Include{Path: "<CommonC/Template.h>"}, Blank{})
	}

	slot := func(p string, i int) string { return fmt.Sprintf("CC_GENERIC_%s%d", p, i) }
	index := func(p string, i int) string { return fmt.Sprintf("CC_GENERIC_%s(%d)", p, i) }

	table := func(prefix string, body func(p string, i int) string) {
		for _, p := range params {
			for i := 0; i < cfg.MaxInstantiations; i++ {
				emit(Define{Name: prefix + "_" + slot(p, i), Params: []string{"..."}, Body: body(p, i)})
			}
			emit(tagAliases(cfg, prefix, p, slot)...)
			emit(Blank{})
		}
	}

	table("CC_TYPE", index)
	for _, p := range params {
		for i := 0; i < cfg.MaxInstantiations; i++ {
			emit(Define{Name: "CC_PRESERVE_CC_TYPE_" + slot(p, i), Body: "CC_TYPE_" + slot(p, i)})
		}
		emit(Blank{})
	}
	table("CC_TYPE_DECL", func(p string, i int) string { return index(p, i) + ", __VA_ARGS__" })

	for _, p := range params {
		g := "CC_GENERIC_" + p
		emit(
			Define{Name: g, Params: []string{"n"}, Body: g + "_(CC_GENERIC_TYPE, n)"},
			Define{Name: g + "_", Params: []string{"t", "n"}, Body: g + "__(t, n)"},
			Define{Name: g + "__", Params: []string{"t", "n"}, Body: "t##_" + p + "##n"},
			Blank{},
		)
	}

	// The typedef ladder starts at zero: an undefined count means the first
	// instantiation.
	ladder := Ladder{Else: []Directive{Error{Message: "Add additional cases"}}}
	for i := 0; i < cfg.MaxInstantiations; i++ {
		expr := "CC_GENERIC_COUNT == " + strconv.Itoa(i)
		if i == 0 {
			expr = "!defined(CC_GENERIC_COUNT) || " + expr
		}
		var body []Directive
		for _, p := range params {
			body = append(body, Line{Text: fmt.Sprintf("typedef CC_TYPE_DECL(%s) %s;", p, index(p, i))})
		}
		for _, p := range params {
			body = append(body, Undef{Name: p})
		}
		for _, p := range params {
			body = append(body, Define{Name: p, Body: slot(p, i)})
		}
		body = append(body,
			Blank{},
			Undef{Name: "CC_GENERIC_COUNT"},
			Define{Name: "CC_GENERIC_COUNT", Body: strconv.Itoa(i + 1)},
			Blank{},
		)
		ladder.Branches = append(ladder.Branches, Branch{Expr: expr, Body: body})
	}
	emit(ladder, Blank{})

	emit(Include{Path: "CC_GENERIC_TEMPLATE"}, Blank{})

	var undefs []Directive
	for _, p := range params {
		undefs = append(undefs, Undef{Name: p})
	}
	emit(
		Cond{Kind: "ifndef", Expr: "CC_GENERIC_PRESERVE_TYPE", Body: undefs},
		Blank{},
		Cond{Kind: "ifndef", Expr: "CC_GENERIC_PRESERVE_HEADER", Body: []Directive{Undef{Name: "CC_GENERIC_TEMPLATE"}}},
	)
	return out
}

func tagAliases(cfg *Config, prefix, p string, slot func(string, int) string) []Directive {
	var out []Directive
	for i := 0; i < cfg.MaxInstantiations; i++ {
		for t := 0; t < cfg.MaxTypeTags; t++ {
			out = append(out, Define{
				Name: fmt.Sprintf("%s_%d_%s", prefix, t, slot(p, i)),
				Body: fmt.Sprintf("%s_%s,", prefix, slot(p, i)),
			})
		}
	}
	return out
}
