// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/pmatkit/pmat"
)

var (
	trace    bool
	jsonOut  bool
	wantRoot bool
	wantSize bool
)

func prettyPrint(v interface{}) string {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(buf)
}

func dump(cmd *cobra.Command, args []string) {
	filePath := args[0]

	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		log.Printf("error while opening file: %s, reason: %s", filePath, err)
		os.Exit(1)
	}

	f, err := pmat.NewBytes(data, &pmat.Options{Trace: trace})
	if err != nil {
		log.Printf("error while opening dump: %s, reason: %s", filePath, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		log.Printf("error while parsing dump: %s, reason: %s", filePath, err)
		os.Exit(1)
	}

	if wantRoot {
		fmt.Println(prettyPrint(f.Roots))
	}

	report := pmat.BuildReport(f.Table.Stats())
	if jsonOut {
		fmt.Println(prettyPrint(report))
		return
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(report.Styled())
	} else {
		fmt.Print(report.Text())
	}

	if wantSize {
		log.Printf("decoded %d objects, %d warnings", f.Table.Len(), f.Table.Warnings())
	}
}

func main() {
	defaultInput := env.Str("PMAT_INPUT", "sample.pmat")

	var rootCmd = &cobra.Command{
		Use:   "pmatdump",
		Short: "A PMAT heap-dump parser",
		Long:  "Decodes PMAT heap-dump snapshots and reports their object graph",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("You are using version 0.1.0")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump [file]",
		Short: "Dumps a PMAT heap-dump snapshot",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				args = []string{defaultInput}
			}
			dump(cmd, args)
		},
	}

	dumpCmd.Flags().BoolVar(&trace, "trace", env.Bool("PMAT_TRACE"), "enable per-object trace logging")
	dumpCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
	dumpCmd.Flags().BoolVar(&wantRoot, "roots", false, "also dump the roots block")
	dumpCmd.Flags().BoolVar(&wantSize, "stats", false, "log object and warning counts")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
