package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/ccgeneric/cmd/ccgeneric/macro"
)

func TestParseFileConfig(t *testing.T) {
	fc, err := parseFileConfig([]byte(`
param_count: 4
max_imps: 8
max_types: 3
include_header: false
params: [K, V]
namespace: CCDictionary
template_header: "<CommonC/DictionaryTemplate.h>"
case_fold: UPPER
preserve: true
defaults:
  - {Tx: int}
  - {Tx: long, Ty: "unsigned long"}
mappings: [CC_DICT_HOOK=1, CC_DICT_PLACEHOLDER]
`))
	require.NoError(t, err)

	s := &settings{cfg: macro.DefaultConfig()}
	require.NoError(t, fc.apply(s))

	cfg := s.cfg
	assert.Equal(t, 4, cfg.ParamCount)
	assert.Equal(t, 8, cfg.MaxInstantiations)
	assert.Equal(t, 3, cfg.MaxTypeTags)
	assert.False(t, cfg.IncludeHeader)
	assert.Equal(t, []string{"K", "V", "Tz", "Tw"}, cfg.ActiveParams())
	assert.Equal(t, "CCDictionary", cfg.Namespace)
	assert.Equal(t, "<CommonC/DictionaryTemplate.h>", cfg.TemplateHeader)
	assert.Equal(t, macro.Upper, cfg.CaseFold)
	assert.True(t, cfg.Preserve)
	require.Len(t, cfg.Defaults, 2)
	assert.Equal(t, 1, cfg.Defaults[1].Index)
	assert.Equal(t, map[string]string{"Tx": "long", "Ty": "unsigned long"}, cfg.Defaults[1].Overrides)
	assert.Equal(t, []macro.NameMapping{{Name: "CC_DICT_HOOK", Value: "1"}}, cfg.Mappings)
}

func TestParseFileConfigEmpty(t *testing.T) {
	fc, err := parseFileConfig(nil)
	require.NoError(t, err)

	s := &settings{cfg: macro.DefaultConfig()}
	require.NoError(t, fc.apply(s))
	assert.Equal(t, macro.DefaultConfig(), s.cfg)
}

func TestFileConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown key", "namespaces: FOO\n", "field namespaces not found"},
		{"wrong type", "max_imps: many\n", "cannot unmarshal"},
		{"bad case fold", "case_fold: title\n", "case-fold"},
		{"empty override", "defaults:\n  - {T: \"\"}\n", "empty replacement type"},
		{"empty set", "defaults:\n  - {}\n", "fallback set 0 is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := parseFileConfig([]byte(tt.yaml))
			if err == nil {
				err = fc.apply(&settings{cfg: macro.DefaultConfig()})
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileConfigRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ccgeneric.yaml")
	require.NoError(t, os.WriteFile(path, []byte("template: src/Template.h\noutput: \"-\"\n"), 0o644))

	fc, err := loadFileConfig(path)
	require.NoError(t, err)

	s := &settings{cfg: macro.DefaultConfig()}
	require.NoError(t, fc.apply(s))
	assert.Equal(t, filepath.Join(dir, "src", "Template.h"), s.template)
	assert.Equal(t, "-", s.output)

	_, err = loadFileConfig(filepath.Join(dir, "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOptionsPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ccgeneric.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"namespace: FromFile\nmax_imps: 5\ndefaults:\n  - {T: int}\nmappings: [A=1]\n"), 0o644))

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, s *settings)
	}{
		{
			name: "file over defaults",
			args: []string{"--config", path},
			check: func(t *testing.T, s *settings) {
				assert.Equal(t, "FromFile", s.cfg.Namespace)
				assert.Equal(t, 5, s.cfg.MaxInstantiations)
				assert.Equal(t, 10, s.cfg.MaxTypeTags)
				assert.Len(t, s.cfg.Defaults, 1)
			},
		},
		{
			name: "flags over file",
			args: []string{"--config", path, "-n", "FromFlag", "-m", "2", "-d", "T=long", "-d", "T=short", "--map", "B=2"},
			check: func(t *testing.T, s *settings) {
				assert.Equal(t, "FromFlag", s.cfg.Namespace)
				assert.Equal(t, 2, s.cfg.MaxInstantiations)
				require.Len(t, s.cfg.Defaults, 2)
				assert.Equal(t, "short", s.cfg.Defaults[1].Overrides["T"])
				assert.Equal(t, []macro.NameMapping{{Name: "B", Value: "2"}}, s.cfg.Mappings)
			},
		},
		{
			name: "exclude header",
			args: []string{"--exclude-header", "--uppercase", "-p", "Elem"},
			check: func(t *testing.T, s *settings) {
				assert.False(t, s.cfg.IncludeHeader)
				assert.Equal(t, macro.Upper, s.cfg.CaseFold)
				assert.Equal(t, []string{"Elem"}, s.cfg.ActiveParams())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &options{}
			fs := pflag.NewFlagSet("imp", pflag.ContinueOnError)
			o.bindShared(fs)
			o.bindImp(fs)
			require.NoError(t, fs.Parse(tt.args))

			s, err := o.resolve(fs)
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := [][]string{
		{"-c", "2"},
		{"-d", "T"},
		{"-d", "Tx=int"},
		{"-n", "not an identifier"},
		{"--map", "1BAD=x"},
	}
	for _, args := range tests {
		o := &options{}
		fs := pflag.NewFlagSet("imp", pflag.ContinueOnError)
		o.bindShared(fs)
		o.bindImp(fs)
		require.NoError(t, fs.Parse(args))

		_, err := o.resolve(fs)
		assert.ErrorIs(t, err, macro.ErrInvalidOption, "args %q", args)
	}
}
