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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOverrideSet(t *testing.T) {
	tests := []struct {
		in      string
		want    map[string]string
		wantErr bool
	}{
		{"T=int", map[string]string{"T": "int"}, false},
		{"Tx=int, Ty = unsigned int", map[string]string{"Tx": "int", "Ty": "unsigned int"}, false},
		{"T=int,", map[string]string{"T": "int"}, false},
		{"T", nil, true},
		{"=int", nil, true},
		{"T=", nil, true},
		{"", nil, true},
		{" , ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			set, err := ParseOverrideSet(3, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOverrideSet(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidOption) {
					t.Errorf("error %v does not wrap ErrInvalidOption", err)
				}
				return
			}
			if set.Index != 3 {
				t.Errorf("Index = %d, want 3", set.Index)
			}
			if diff := cmp.Diff(tt.want, set.Overrides); diff != "" {
				t.Errorf("Overrides mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNameMapping(t *testing.T) {
	tests := []struct {
		in     string
		want   NameMapping
		wantOK bool
	}{
		{"CC_TYPE_FOO=int", NameMapping{Name: "CC_TYPE_FOO", Value: "int"}, true},
		{"A = B(x)=y", NameMapping{Name: "A", Value: "B(x)=y"}, true},
		{"CC_TYPE_FOO", NameMapping{Name: "CC_TYPE_FOO"}, false},
		{"CC_TYPE_FOO=", NameMapping{Name: "CC_TYPE_FOO"}, false},
		{"=int", NameMapping{Value: "int"}, false},
	}
	for _, tt := range tests {
		got, ok := ParseNameMapping(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseNameMapping(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTableRetracted(t *testing.T) {
	tab := &Table{
		Namespace: "FOO",
		Mappings: []NameMapping{
			{Name: "A", Value: "1"},
			{Name: "T", Value: "int"},
			{Name: "FOO_T", Value: "long"},
			{Name: "B"},
			{Name: "A", Value: "2"},
		},
	}
	if diff := cmp.Diff([]string{"A"}, tab.Retracted([]string{"T"})); diff != "" {
		t.Errorf("Retracted mismatch (-want +got):\n%s", diff)
	}
	if got := len(tab.Defined()); got != 4 {
		t.Errorf("Defined() returned %d mappings, want 4", got)
	}
}

func TestTableUnused(t *testing.T) {
	tab := &Table{Sets: []OverrideSet{
		{Index: 0, Overrides: map[string]string{"Tx": "int"}},
		{Index: 1, Overrides: map[string]string{"Tz": "float"}},
	}}
	if diff := cmp.Diff([]int{1}, tab.Unused([]string{"Tx", "Ty"})); diff != "" {
		t.Errorf("Unused mismatch (-want +got):\n%s", diff)
	}
}

func TestChain(t *testing.T) {
	r := &Resolved{
		Symbol: SymbolDecl{Macro: "CCMin_T"},
		Params: []string{"T"},
		Bindings: []Binding{
			{Arg: "a", Param: "T"},
		},
	}
	key := []string{"((typeof(a)){0})"}

	tests := []struct {
		name string
		sets []OverrideSet
		want string
	}{
		{
			name: "primary only",
			want: "CC_GENERIC((((typeof(a)){0})), CCMin_T, CC_GENERIC_MATCH, (FOO_T))",
		},
		{
			name: "one fallback",
			sets: []OverrideSet{{Index: 0, Overrides: map[string]string{"T": "int"}}},
			want: "CC_GENERIC((((typeof(a)){0})), CCMin_T, " +
				"CC_RECURSIVE_0_GENERIC((((typeof(a)){0})), CCMin_T, CC_GENERIC_MATCH, (int)), (FOO_T))",
		},
		{
			name: "layer without override repeats primary list",
			sets: []OverrideSet{
				{Index: 0, Overrides: map[string]string{"Tx": "int"}},
				{Index: 1, Overrides: map[string]string{"T": "float, double"}},
			},
			want: "CC_GENERIC((((typeof(a)){0})), CCMin_T, " +
				"CC_RECURSIVE_0_GENERIC((((typeof(a)){0})), CCMin_T, " +
				"CC_RECURSIVE_1_GENERIC((((typeof(a)){0})), CCMin_T, CC_GENERIC_MATCH, (float, double)), " +
				"(FOO_T)), (FOO_T))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := &Table{Namespace: "FOO", Sets: tt.sets}
			if got := tab.DispatchExpr(r, key); got != tt.want {
				t.Errorf("DispatchExpr() =\n%s\nwant\n%s", got, tt.want)
			}

			chain := tab.Chain(r)
			if got := chain.Depth(); got != len(tt.sets) {
				t.Errorf("Depth() = %d, want %d", got, len(tt.sets))
			}
			expr := tab.DispatchExpr(r, key)
			if got := strings.Count(expr, "CC_GENERIC_MATCH"); got != 1 {
				t.Errorf("expression has %d CC_GENERIC_MATCH sentinels, want 1", got)
			}
			if strings.Count(expr, "(") != strings.Count(expr, ")") {
				t.Errorf("unbalanced parentheses in %s", expr)
			}
		})
	}
}

func TestChainPointerFormatter(t *testing.T) {
	r := &Resolved{
		Symbol:   SymbolDecl{Macro: "CCBufferAdd_T"},
		Params:   []string{"T"},
		Bindings: []Binding{{Arg: "buffer", Param: "T", Formatter: Formatter{Pointers: 1}}},
	}
	tab := &Table{Namespace: "NS", Sets: []OverrideSet{{Index: 0, Overrides: map[string]string{"T": "int"}}}}
	want := "CC_GENERIC((k), CCBufferAdd_T, " +
		"CC_RECURSIVE_0_GENERIC((k), CCBufferAdd_T, CC_GENERIC_MATCH, (CC_GENERIC_PTYPE_1(int))), " +
		"(CC_GENERIC_PTYPE_1(NS_T)))"
	if got := tab.DispatchExpr(r, []string{"k"}); got != want {
		t.Errorf("DispatchExpr() =\n%s\nwant\n%s", got, want)
	}
}
