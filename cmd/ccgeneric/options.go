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

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajroetker/ccgeneric/cmd/ccgeneric/macro"
)

// options holds raw flag values. Only flags the user set override the
// configuration file.
type options struct {
	configPath    string
	output        string
	verbose       bool
	paramCount    int
	maxImps       int
	maxTypes      int
	includeHeader bool
	excludeHeader bool
	params        []string

	namespace      string
	templateHeader string
	template       string
	defaults       []string
	mappings       []string
	lowercase      bool
	uppercase      bool
	preserve       bool
}

func (o *options) bindShared(fs *pflag.FlagSet) {
	def := macro.DefaultConfig()
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVarP(&o.output, "output", "o", "", "Output file (default: stdout)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Log resolution details")
	fs.IntVarP(&o.paramCount, "param-count", "c", def.ParamCount, "Template parameter count (1 or 4)")
	fs.IntVarP(&o.maxImps, "max-imps", "m", def.MaxInstantiations, "Maximum instantiations per generic point")
	fs.IntVarP(&o.maxTypes, "max-types", "y", def.MaxTypeTags, "Maximum distinct type tags")
	fs.BoolVar(&o.includeHeader, "include-header", def.IncludeHeader, "Prepend the umbrella include")
	fs.BoolVar(&o.excludeHeader, "exclude-header", false, "Omit the umbrella include")
	fs.StringArrayVarP(&o.params, "param", "p", nil, "Template parameter name (repeatable)")
}

func (o *options) bindImp(fs *pflag.FlagSet) {
	def := macro.DefaultConfig()
	fs.StringVarP(&o.namespace, "namespace", "n", def.Namespace, "Prefix of namespaced identifiers")
	fs.StringVar(&o.templateHeader, "template-header", def.TemplateHeader, "Header assigned to CC_GENERIC_TEMPLATE")
	fs.StringVarP(&o.template, "template", "t", "", "Template source to scan")
	fs.StringArrayVarP(&o.defaults, "default", "d", nil, "Fallback set PARAM=TYPE[,PARAM=TYPE] (repeatable, tried in order)")
	fs.StringArrayVar(&o.mappings, "map", nil, "Name mapping NAME[=VALUE] (repeatable)")
	fs.BoolVar(&o.lowercase, "lowercase", false, "Lower-case emitted argument names (default)")
	fs.BoolVar(&o.uppercase, "uppercase", false, "Upper-case emitted argument names")
	fs.BoolVar(&o.preserve, "preserve", false, "Keep parameter and mapping names defined after the header")
}

// settings is the merged result of defaults, configuration file and flags.
type settings struct {
	cfg      macro.Config
	template string
	output   string
}

func (o *options) resolve(fs *pflag.FlagSet) (*settings, error) {
	s := &settings{cfg: macro.DefaultConfig()}
	if o.configPath != "" {
		fc, err := loadFileConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		if err := fc.apply(s); err != nil {
			return nil, fmt.Errorf("config %s: %w", o.configPath, err)
		}
	}

	changed := fs.Changed
	if changed("param-count") {
		s.cfg.ParamCount = o.paramCount
	}
	if changed("max-imps") {
		s.cfg.MaxInstantiations = o.maxImps
	}
	if changed("max-types") {
		s.cfg.MaxTypeTags = o.maxTypes
	}
	if changed("include-header") {
		s.cfg.IncludeHeader = o.includeHeader
	}
	if changed("exclude-header") && o.excludeHeader {
		s.cfg.IncludeHeader = false
	}
	if changed("param") {
		s.cfg.Params = o.params
	}
	if changed("output") {
		s.output = o.output
	}
	if changed("namespace") {
		s.cfg.Namespace = o.namespace
	}
	if changed("template-header") {
		s.cfg.TemplateHeader = o.templateHeader
	}
	if changed("template") {
		s.template = o.template
	}
	if changed("uppercase") && o.uppercase {
		s.cfg.CaseFold = macro.Upper
	}
	if changed("lowercase") && o.lowercase {
		s.cfg.CaseFold = macro.Lower
	}
	if changed("preserve") {
		s.cfg.Preserve = o.preserve
	}
	if changed("default") {
		s.cfg.Defaults = nil
		for i, d := range o.defaults {
			set, err := macro.ParseOverrideSet(i, d)
			if err != nil {
				return nil, err
			}
			s.cfg.Defaults = append(s.cfg.Defaults, set)
		}
	}
	if changed("map") {
		s.cfg.Mappings = parseMappings(o.mappings)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseMappings drops NAME entries without a value.
func parseMappings(raw []string) []macro.NameMapping {
	var out []macro.NameMapping
	for _, r := range raw {
		if m, ok := macro.ParseNameMapping(r); ok {
			out = append(out, m)
		}
	}
	return out
}

func (o *options) generator(cmd *cobra.Command) (*Generator, error) {
	s, err := o.resolve(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return &Generator{
		Config:       s.cfg,
		TemplatePath: s.template,
		Output:       s.output,
		Stdout:       cmd.OutOrStdout(),
		Logger:       newLogger(o.verbose),
	}, nil
}
