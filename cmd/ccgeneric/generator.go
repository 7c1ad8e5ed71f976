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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ajroetker/ccgeneric/cmd/ccgeneric/macro"
)

// Generator orchestrates one generation run.
type Generator struct {
	Config       macro.Config // validated configuration
	TemplatePath string       // template source; empty emits no symbols
	Output       string       // output file; empty or "-" writes to Stdout
	Stdout       io.Writer
	Logger       *slog.Logger
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}

// RunImp executes the implementation-header pipeline. Nothing is written
// unless every symbol resolves.
func (g *Generator) RunImp() error {
	log := g.logger()

	// 1. Read and scan the template source
	var src string
	if g.TemplatePath != "" {
		data, err := os.ReadFile(g.TemplatePath)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		src = string(data)
	}
	cat := macro.ParseCatalog(src)
	for _, line := range cat.Skipped {
		log.Debug("skipped symbol declaration not on a single line", "file", g.TemplatePath, "line", line)
	}
	log.Debug("scanned template source",
		"file", g.TemplatePath, "templates", len(cat.Templates), "symbols", len(cat.Symbols))

	// 2. Bind symbols to templates
	params := g.Config.ActiveParams()
	resolved, err := macro.Resolve(cat, params)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	table := g.Config.Table()
	for i := range resolved {
		r := &resolved[i]
		for _, idx := range table.Unused(r.Params) {
			log.Warn("fallback set overrides no parameter of template; layer repeats the primary match",
				"symbol", r.Symbol.Macro, "template", r.Symbol.TemplateRef, "set", idx, "params", r.Params)
		}
		log.Debug("resolved symbol",
			"symbol", r.Symbol.Macro, "template", r.Symbol.TemplateRef,
			"variadic", r.Variadic, "bindings", len(r.Bindings))
	}

	// 3. Emit
	dirs := macro.NewEmitter(&g.Config).Emit(resolved)
	return g.write(dirs)
}

// RunN emits the Generic<N> companion table.
func (g *Generator) RunN() error {
	return g.write(macro.EmitGenericN(&g.Config))
}

func (g *Generator) write(dirs []macro.Directive) error {
	text := macro.Render(dirs)
	if g.Output == "" || g.Output == "-" {
		if _, err := io.WriteString(g.Stdout, text); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	if err := writeFileAtomic(g.Output, []byte(text)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	g.logger().Info("wrote header", "path", g.Output, "directives", len(dirs))
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
