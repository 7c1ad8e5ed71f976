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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajroetker/ccgeneric/cmd/ccgeneric/macro"
)

// fileConfig is the YAML form of the generator options. Pointer fields
// distinguish "unset" from zero values. Relative paths are resolved
// against the directory of the configuration file.
//
//	namespace: CCExtrema
//	template: ExtremaTemplate.h
//	template_header: <CommonC/ExtremaTemplate.h>
//	defaults:
//	  - {T: int}
//	mappings:
//	  - CC_EXTREMA_PRESERVE=1
type fileConfig struct {
	ParamCount     *int                `yaml:"param_count"`
	MaxImps        *int                `yaml:"max_imps"`
	MaxTypes       *int                `yaml:"max_types"`
	IncludeHeader  *bool               `yaml:"include_header"`
	Params         []string            `yaml:"params"`
	Namespace      string              `yaml:"namespace"`
	TemplateHeader string              `yaml:"template_header"`
	Template       string              `yaml:"template"`
	Output         string              `yaml:"output"`
	CaseFold       string              `yaml:"case_fold"`
	Preserve       *bool               `yaml:"preserve"`
	Defaults       []map[string]string `yaml:"defaults"`
	Mappings       []string            `yaml:"mappings"`

	dir string
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	fc, err := parseFileConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	fc.dir = filepath.Dir(path)
	return fc, nil
}

func parseFileConfig(data []byte) (*fileConfig, error) {
	fc := &fileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return fc, nil
}

func (fc *fileConfig) path(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) || fc.dir == "" {
		return p
	}
	return filepath.Join(fc.dir, p)
}

// apply overlays the file values onto s.
func (fc *fileConfig) apply(s *settings) error {
	if fc.ParamCount != nil {
		s.cfg.ParamCount = *fc.ParamCount
	}
	if fc.MaxImps != nil {
		s.cfg.MaxInstantiations = *fc.MaxImps
	}
	if fc.MaxTypes != nil {
		s.cfg.MaxTypeTags = *fc.MaxTypes
	}
	if fc.IncludeHeader != nil {
		s.cfg.IncludeHeader = *fc.IncludeHeader
	}
	if len(fc.Params) > 0 {
		s.cfg.Params = fc.Params
	}
	if fc.Namespace != "" {
		s.cfg.Namespace = fc.Namespace
	}
	if fc.TemplateHeader != "" {
		s.cfg.TemplateHeader = fc.TemplateHeader
	}
	if fc.Template != "" {
		s.template = fc.path(fc.Template)
	}
	if fc.Output != "" {
		s.output = fc.path(fc.Output)
	}
	if fc.CaseFold != "" {
		fold, err := macro.ParseCaseFold(strings.ToLower(fc.CaseFold))
		if err != nil {
			return err
		}
		s.cfg.CaseFold = fold
	}
	if fc.Preserve != nil {
		s.cfg.Preserve = *fc.Preserve
	}
	for i, d := range fc.Defaults {
		set := macro.OverrideSet{Index: i, Overrides: make(map[string]string, len(d))}
		for k, v := range d {
			if strings.TrimSpace(v) == "" {
				return &macro.ConfigError{Option: "defaults", Value: k, Reason: "empty replacement type"}
			}
			set.Overrides[k] = strings.TrimSpace(v)
		}
		if len(set.Overrides) == 0 {
			return &macro.ConfigError{Option: "defaults", Reason: fmt.Sprintf("fallback set %d is empty", i)}
		}
		s.cfg.Defaults = append(s.cfg.Defaults, set)
	}
	s.cfg.Mappings = append(s.cfg.Mappings, parseMappings(fc.Mappings)...)
	return nil
}
