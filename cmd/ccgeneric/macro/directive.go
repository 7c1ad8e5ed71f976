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
	"io"
	"strings"
)

type (
	// Directive is one emitted preprocessor construct. Its String form may
	// span several lines but never ends with a newline.
	Directive interface {
		fmt.Stringer
	}
	// Include is `#include <path>`; Path carries its own delimiters.
	Include struct {
		Path string
	}
	// Define is `#define`. A nil Params makes an object-like macro.
	Define struct {
		Name   string
		Params []string
		Body   string
	}
	// Undef is `#undef`.
	Undef struct {
		Name string
	}
	// Cond is a single-branch #if/#ifdef/#ifndef block.
	Cond struct {
		Kind string // "if", "ifdef" or "ifndef"
		Expr string
		Body []Directive
	}
	// Branch is one arm of a Ladder.
	Branch struct {
		Expr string
		Body []Directive
	}
	// Ladder is #if/#elif.../#else/#endif; Else may be empty.
	Ladder struct {
		Branches []Branch
		Else     []Directive
	}
	// Error is `#error`.
	Error struct {
		Message string
	}
	// Line is a verbatim line, used for C declarations in generated tables.
	Line struct {
		Text string
	}
	// Blank separates groups of directives.
	Blank struct{}
)

func (d Include) String() string { return "#include " + d.Path }

func (d Define) String() string {
	var b strings.Builder
	b.WriteString("#define ")
	b.WriteString(d.Name)
	if d.Params != nil {
		b.WriteString("(" + strings.Join(d.Params, ", ") + ")")
	}
	if d.Body != "" {
		b.WriteString(" " + d.Body)
	}
	return b.String()
}

func (d Undef) String() string { return "#undef " + d.Name }

func (d Cond) String() string {
	lines := []string{"#" + d.Kind + " " + d.Expr}
	lines = appendBody(lines, d.Body)
	return strings.Join(append(lines, "#endif"), "\n")
}

func (d Ladder) String() string {
	var lines []string
	for i, br := range d.Branches {
		kw := "#elif "
		if i == 0 {
			kw = "#if "
		}
		lines = appendBody(append(lines, kw+br.Expr), br.Body)
	}
	if len(d.Else) > 0 {
		lines = appendBody(append(lines, "#else"), d.Else)
	}
	return strings.Join(append(lines, "#endif"), "\n")
}

func (d Error) String() string { return "#error " + d.Message }
func (d Line) String() string  { return d.Text }
func (Blank) String() string   { return "" }

func appendBody(lines []string, body []Directive) []string {
	for _, d := range body {
		lines = append(lines, d.String())
	}
	return lines
}

// Write renders dirs one per line.
func Write(w io.Writer, dirs []Directive) error {
	for _, d := range dirs {
		if _, err := io.WriteString(w, d.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the text Write would produce.
func Render(dirs []Directive) string {
	var b strings.Builder
	_ = Write(&b, dirs)
	return b.String()
}
