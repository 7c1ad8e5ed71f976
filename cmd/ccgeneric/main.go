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

// Command ccgeneric generates the preprocessor lattices behind CommonC's
// compile-time generic dispatch.
//
// Usage:
//
//	ccgeneric imp -n CCRange -t RangeTemplate.h --template-header '<CommonC/RangeTemplate.h>' -o RangeGeneric.h
//	ccgeneric imp --config extrema.yaml
//	ccgeneric n -c 4 -o Generic4.h
//
// The imp subcommand scans a template header for CC_TEMPLATE declarations and
// `#define X_T(...) CC_TEMPLATE_REF(...)` symbols and emits:
//  1. Per-symbol call and _Ref dispatch macros (with optional fallback chains)
//  2. Indexed type lists and mangled-type slots for the namespace
//  3. The CC_GENERIC_COUNT selection ladder and CC_TYPE_* lookup tables
//
// The n subcommand emits the CommonC/Generic<N>.h table that imp output
// includes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ccgeneric",
		Short:         "Generate CommonC generic dispatch macros",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImpCommand(), newNCommand())
	return root
}

func newImpCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "imp",
		Short: "Generate the generic implementation header for a template source",
		Long: `Generate the generic implementation header for a template source.

Symbols are single-line declarations of the form
  #define Name_T(t) CC_TEMPLATE_REF(Name, Ret, Arg...)
bound against CC_TEMPLATE(Ret, Name, (Params...)) declarations.

Example:
  ccgeneric imp -n CCExtrema -t ExtremaTemplate.h -d T=int -o ExtremaGeneric.h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := opts.generator(cmd)
			if err != nil {
				return err
			}
			return gen.RunImp()
		},
	}
	opts.bindShared(cmd.Flags())
	opts.bindImp(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("include-header", "exclude-header")
	cmd.MarkFlagsMutuallyExclusive("lowercase", "uppercase")
	return cmd
}

func newNCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "n",
		Short: "Generate the CommonC/Generic<N>.h table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := opts.generator(cmd)
			if err != nil {
				return err
			}
			return gen.RunN()
		},
	}
	opts.bindShared(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("include-header", "exclude-header")
	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
