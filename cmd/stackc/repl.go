package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	"stackc/compiler"
	"stackc/treefile"
)

const (
	historyFile = ".stackc_history"
	prompt      = "stackc> "
)

const replHelp = `Enter a tree node as YAML flow, e.g. {add: [{const: 1}, {const: 2}]}
  :load <file>      load a tree file
  :call [args]      call the loaded tree with a YAML argument sequence
  :options <flags>  set compile options (now %s)
  :disasm           toggle disassembly
  :write <file>     write the loaded tree back out
  :quit             leave
`

func runREPL(s *session) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := filepath.Join(os.TempDir(), historyFile)
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf(replHelp, s.opts)
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		quit, err := s.eval(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		if quit {
			return
		}
	}
}

// eval runs one REPL line
func (s *session) eval(line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		return false, s.evalNode(line)
	}
	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "quit", "q":
		return true, nil
	case "help", "h":
		fmt.Printf(replHelp, s.opts)
	case "disasm":
		s.disasm = !s.disasm
		fmt.Println("disassembly", map[bool]string{true: "on", false: "off"}[s.disasm])
	case "options":
		o, err := compiler.ParseOptions(rest)
		if err != nil {
			return false, err
		}
		s.opts = o
		fmt.Println("options", s.opts)
	case "load":
		f, err := treefile.ReadFile(rest, s.host)
		if err != nil {
			return false, err
		}
		s.loaded, s.types = f.Lambda, f.Types
		fmt.Printf("loaded %s: %s\n", s.loaded.Name, s.loaded.Type())
	case "call":
		if s.loaded == nil {
			return false, fmt.Errorf("nothing loaded")
		}
		unit, err := s.compile(s.loaded)
		if err != nil {
			return false, err
		}
		out, err := s.call(s.loaded, unit, rest)
		if err != nil {
			return false, err
		}
		fmt.Print(out)
	case "write":
		if s.loaded == nil {
			return false, fmt.Errorf("nothing loaded")
		}
		return false, treefile.WriteFile(rest, s.loaded)
	default:
		return false, fmt.Errorf("unknown command :%s", cmd)
	}
	return false, nil
}

// evalNode compiles a single node as the body of a parameterless lambda
// and prints its value
func (s *session) evalNode(src string) error {
	var body yaml.Node
	if err := yaml.Unmarshal([]byte(src), &body); err != nil {
		return err
	}
	if len(body.Content) == 0 {
		return nil
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "name"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "repl"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "body"},
		body.Content[0],
	}}
	l, err := treefile.DecodeLambda(root, s.types, s.host)
	if err != nil {
		return err
	}
	unit, err := s.compile(l)
	if err != nil {
		return err
	}
	out, err := s.call(l, unit, "")
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
