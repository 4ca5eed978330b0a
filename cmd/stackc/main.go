package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stackc/builtins"
	"stackc/compiler"
	"stackc/trace"
	"stackc/tree"
	"stackc/treefile"
	"stackc/types"
)

func main() {
	treePath := flag.String("tree", "", "Tree file to compile (YAML)")
	optionsFlag := flag.String("options", "", "Compile options, e.g. \"CheckNullReferences|UseTernaryLogic\" (default $STACKC_OPTIONS)")
	argsFlag := flag.String("args", "", "Arguments as a YAML flow sequence, e.g. \"[1, null, hello]\"")
	disasm := flag.Bool("disasm", false, "Print the disassembly of every unit")
	fingerprint := flag.Bool("fingerprint", false, "Print the code fingerprint")
	writePath := flag.String("write", "", "Write the decoded tree back to this file")
	repl := flag.Bool("repl", false, "Start an interactive session")

	// Trace flags
	traceEnabled := flag.Bool("trace", false, "Enable compile and execution tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob, e.g., 'sum*' or 'inner')")

	flag.Parse()

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
		}
		trace.Init(true, filters, os.Stderr)
	} else {
		trace.Init(false, nil, nil)
	}

	opts, err := compiler.OptionsFromEnv(0)
	if err != nil {
		log.Fatalf("STACKC_OPTIONS: %v", err)
	}
	if *optionsFlag != "" {
		if opts, err = compiler.ParseOptions(*optionsFlag); err != nil {
			log.Fatalf("-options: %v", err)
		}
	}

	host := builtins.NewRegistry()
	s := &session{
		host:   host,
		opts:   opts,
		disasm: *disasm,
		trace:  *traceEnabled,
	}

	if *treePath != "" {
		f, err := treefile.ReadFile(*treePath, host)
		if err != nil {
			log.Fatal(err)
		}
		s.loaded, s.types = f.Lambda, f.Types
		if *writePath != "" {
			if err := treefile.WriteFile(*writePath, f.Lambda); err != nil {
				log.Fatalf("write %s: %v", *writePath, err)
			}
		}
	}

	if *repl {
		runREPL(s)
		return
	}

	if s.loaded == nil {
		fmt.Fprintln(os.Stderr, "usage: stackc -tree file.yaml [-args '[...]'] [-options flags] [-disasm] | -repl")
		flag.PrintDefaults()
		os.Exit(2)
	}

	unit, err := s.compile(s.loaded)
	if err != nil {
		log.Fatal(err)
	}
	if *fingerprint {
		fmt.Println(unit.Fingerprint())
	}
	out, err := s.call(s.loaded, unit, *argsFlag)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(out)
}

// session holds what one invocation of the tool compiles against
type session struct {
	host   *builtins.Registry
	opts   compiler.Options
	disasm bool
	trace  bool
	loaded *tree.Lambda
	types  *treefile.Types // Declared by the loaded file; visible to REPL nodes
}

func (s *session) compile(l *tree.Lambda) (*compiler.Unit, error) {
	c := compiler.New(s.opts)
	c.Host = s.host
	if s.trace {
		c.Sink = trace.Global()
	}
	unit, err := c.Compile(l)
	if err != nil {
		return nil, err
	}
	if s.disasm {
		fmt.Print(unit.Disassemble())
	}
	return unit, nil
}

// call decodes args against the lambda's parameters, runs the unit and
// renders the result as YAML
func (s *session) call(l *tree.Lambda, unit *compiler.Unit, args string) (string, error) {
	var seq []yaml.Node
	if strings.TrimSpace(args) != "" {
		if err := yaml.Unmarshal([]byte(args), &seq); err != nil {
			return "", fmt.Errorf("args: %w", err)
		}
	}
	if len(seq) != len(l.Params) {
		return "", fmt.Errorf("%s takes %d arguments, got %d", l.Name, len(l.Params), len(seq))
	}
	values := make([]types.Value, len(seq))
	for i, p := range l.Params {
		v, err := treefile.DecodeValue(&seq[i], p.Type)
		if err != nil {
			return "", fmt.Errorf("argument %s: %w", p.Name, err)
		}
		values[i] = v
	}

	result, err := unit.Call(values...)
	if err != nil {
		return "", err
	}
	if l.Result().Kind == types.KindVoid {
		return "", nil
	}
	n, err := treefile.EncodeValue(result)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
