// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/pmatkit/pmat"
)

// shell holds the decoded dump an interactive session queries.
type shell struct {
	file *pmat.File
}

func (s *shell) dispatch(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "get":
		s.cmdGet(fields[1:])
	case "stats":
		fmt.Print(pmat.BuildReport(s.file.Table.Stats()).Text())
	case "roots":
		s.cmdRoots()
	case "count":
		fmt.Println(s.file.Table.Len())
	case "help":
		s.cmdHelp()
	default:
		fmt.Printf("unknown command %q, type help for a list\n", fields[0])
	}
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <address>")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		fmt.Printf("invalid address %q: %v\n", args[0], err)
		return
	}
	sv, err := s.file.Table.Get(addr)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%#x: %s refcnt=%d size=%d blessed=%#x\n", sv.Address, sv.Type, sv.RefCnt, sv.Size, sv.Blessed)
}

func (s *shell) cmdRoots() {
	r := s.file.Roots
	fmt.Printf("undef=%#x yes=%#x no=%#x\n", r.Undef, r.Yes, r.No)
	for _, nr := range r.OtherRoots {
		fmt.Printf("  %s = %#x\n", nr.Name, nr.Ptr)
	}
}

func (s *shell) cmdHelp() {
	fmt.Println(`commands:
  get <address>    show the object interned at address
  stats            print the size report
  roots            print the roots block
  count            print the number of interned objects
  help             show this message`)
}

func runShell(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := pmat.NewBytes(data, &pmat.Options{})
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		return err
	}

	rl, err := readline.New("pmat> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	s := &shell{file: f}
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		s.dispatch(line)
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "pmatshell [file]",
		Short: "An interactive explorer for PMAT heap-dump snapshots",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runShell(args[0]); err != nil {
				log.Printf("error: %v", err)
				os.Exit(1)
			}
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
