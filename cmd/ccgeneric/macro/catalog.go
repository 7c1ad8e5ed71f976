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

// Package macro builds C preprocessor generic-dispatch lattices from the
// CC_TEMPLATE / CC_TEMPLATE_REF declarations found in C headers.
//
// The pipeline is ParseCatalog -> Resolve -> Emit -> Write. Each stage is a
// pure function of its inputs; nothing is cached between runs.
package macro

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// TemplateDecl is one CC_TEMPLATE(...) declaration.
type TemplateDecl struct {
	Name  string   // second top-level argument of CC_TEMPLATE
	Text  string   // the whole single-line match, used for lookups
	Slots []string // entries of the parenthesized argument list
	Line  int
}

// SymbolDecl is one `#define X_T(...) CC_TEMPLATE_REF(...)` declaration.
type SymbolDecl struct {
	Macro       string   // the _T macro the dispatch expands into
	CallArgs    []string // arguments of the _T macro
	TemplateRef string   // first argument of CC_TEMPLATE_REF
	// TemplateArgTypes holds the remaining CC_TEMPLATE_REF arguments:
	// the return type followed by one type per template argument slot.
	TemplateArgTypes []string
	Line             int
}

// Catalog is the result of scanning one template source.
type Catalog struct {
	Templates []TemplateDecl
	Symbols   []SymbolDecl
	// Skipped lists the lines of symbol declarations continued onto the
	// next line. They are not recognized.
	Skipped []int
}

var (
	templateRe = regexp.MustCompile(`CC_TEMPLATE\(.*\)`)
	symbolRe   = regexp.MustCompile(`^[^/\n]*?#define .*?_T\(.*?\).*?CC_TEMPLATE_REF\(.*\)`)
	macroRe    = regexp.MustCompile(`(\w*)\(`)
	callArgsRe = regexp.MustCompile(`\(.*?\)`)
	refRe      = regexp.MustCompile(`CC_TEMPLATE_REF\((\w*)`)
	wordRe     = regexp.MustCompile(`\w+`)
	// A symbol header continued with a backslash.
	continuedRe = regexp.MustCompile(`^[^/\n]*?#define .*?_T\(.*?\).*\\\s*$`)
)

// ParseCatalog scans src line by line. Declarations spanning several lines
// are not recognized.
func ParseCatalog(src string) *Catalog {
	cat := &Catalog{}
	seen := make(map[string]bool)

	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1

		if s := symbolRe.FindString(line); s != "" {
			cat.Symbols = append(cat.Symbols, parseSymbol(s, lineNo))
		} else if continuedRe.MatchString(line) {
			cat.Skipped = append(cat.Skipped, lineNo)
		}

		if t := templateRe.FindString(line); t != "" && !seen[t] {
			seen[t] = true
			cat.Templates = append(cat.Templates, parseTemplate(t, lineNo))
		}
	}
	return cat
}

func parseSymbol(s string, line int) SymbolDecl {
	sym := SymbolDecl{Line: line}
	if m := macroRe.FindStringSubmatch(s); m != nil {
		sym.Macro = m[1]
	}
	if args := callArgsRe.FindString(s); len(args) >= 2 {
		sym.CallArgs = lo.Map(strings.Split(args[1:len(args)-1], ","), func(a string, _ int) string {
			return strings.TrimSpace(a)
		})
	}
	if m := refRe.FindStringSubmatch(s); m != nil {
		sym.TemplateRef = m[1]
	}

	// Everything after "CC_TEMPLATE_REF(" up to the closing parenthesis.
	ref := s[strings.Index(s, "CC_TEMPLATE_REF(")+len("CC_TEMPLATE_REF("):]
	ref = strings.TrimSuffix(ref, ")")
	types := trimTrailingEmpty(strings.Split(ref, ","))
	if len(types) > 0 {
		types = types[1:]
	}
	sym.TemplateArgTypes = lo.Map(types, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})
	return sym
}

func parseTemplate(text string, line int) TemplateDecl {
	decl := TemplateDecl{Text: text, Line: line}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "CC_TEMPLATE("), ")")
	fields := splitTopLevel(inner)
	if len(fields) > 1 {
		decl.Name = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		list := strings.TrimSpace(strings.Join(fields[2:], ","))
		if strings.HasPrefix(list, "(") && strings.HasSuffix(list, ")") {
			decl.Slots = lo.Map(splitTopLevel(list[1:len(list)-1]), func(s string, _ int) string {
				return strings.TrimSpace(s)
			})
		}
	}
	return decl
}

// Lookup returns the first template whose declaration contains name as a
// token delimited by non-word characters on both sides.
func (c *Catalog) Lookup(name string) (*TemplateDecl, bool) {
	if name == "" {
		return nil, false
	}
	for i := range c.Templates {
		if containsToken(c.Templates[i].Text, name) {
			return &c.Templates[i], true
		}
	}
	return nil, false
}

// containsToken reports whether tok occurs in s with a non-word character
// immediately before and after it. An occurrence touching either end of s
// does not count.
func containsToken(s, tok string) bool {
	return tokenIndex(s, tok) >= 0
}

func tokenIndex(s, tok string) int {
	if tok == "" {
		return -1
	}
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], tok)
		if i < 0 {
			return -1
		}
		start, end := off+i, off+i+len(tok)
		if start > 0 && end < len(s) && !isWordByte(s[start-1]) && !isWordByte(s[end]) {
			return start
		}
		off = start + 1
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// splitTopLevel splits s on commas that are not nested in parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func trimTrailingEmpty(parts []string) []string {
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
