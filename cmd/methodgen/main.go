// methodgen CLI - synthesizes method bodies for the types of a model
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/chazu/methodgen/artifact"
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/config"
	"github.com/chazu/methodgen/model"
	"github.com/chazu/methodgen/synth"

	_ "github.com/tliron/commonlog/simple"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (log resolution decisions)")
	dir := flag.String("C", ".", "Directory to search for "+config.FileName)
	modelPath := flag.String("model", "", "Type model file (.toml, .yaml or .yml); overrides output.model")
	outPath := flag.String("o", "", "Write the CBOR artifact here; overrides output.artifact")
	quiet := flag.Bool("q", false, "Do not print the disassembly listing")
	initConfig := flag.Bool("init", false, "Write a default "+config.FileName+" and exit")
	inspect := flag.String("inspect", "", "Print the listing of a previously written artifact and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: methodgen [options] type\n\n")
		fmt.Fprintf(os.Stderr, "Synthesizes the bound methods of a type and prints their bytecode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  methodgen -init                                # Write methodgen.toml\n")
		fmt.Fprintf(os.Stderr, "  methodgen com.example.Point                    # Use output.model from methodgen.toml\n")
		fmt.Fprintf(os.Stderr, "  methodgen -model types.yaml com.example.Point  # Explicit model\n")
		fmt.Fprintf(os.Stderr, "  methodgen -o point.cbor com.example.Point      # Also write the artifact\n")
		fmt.Fprintf(os.Stderr, "  methodgen -inspect point.cbor                  # Show an artifact\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	if *initConfig {
		path := filepath.Join(*dir, config.FileName)
		if _, err := os.Stat(path); err == nil {
			fatalf("%s already exists", path)
		}
		if err := config.Default().Write(path); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return
	}

	if *inspect != "" {
		data, err := os.ReadFile(*inspect)
		if err != nil {
			fatalf("%v", err)
		}
		class, err := artifact.Unmarshal(data)
		if err != nil {
			fatalf("%v", err)
		}
		if err := printClass(os.Stdout, class, color); err != nil {
			fatalf("%v", err)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	typeName := flag.Arg(0)

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fatalf("%v", err)
	}
	if cfg == nil {
		cfg = config.Default()
		cfg.Dir, _ = filepath.Abs(*dir)
		if *verbose {
			fmt.Fprintf(os.Stderr, "No %s found, using defaults\n", config.FileName)
		}
	}

	path := *modelPath
	if path == "" {
		path = cfg.ModelPath()
	}
	if path == "" {
		fatalf("no type model: pass -model or set output.model in %s", config.FileName)
	}
	m, err := model.Load(path)
	if err != nil {
		fatalf("%v", err)
	}

	s, err := synth.New(cfg, m)
	if err != nil {
		fatalf("%v", err)
	}
	class, synthErr := s.Synthesize(typeName)
	if class == nil {
		fatalf("%v", synthErr)
	}

	if !*quiet {
		if err := printClass(os.Stdout, class, color); err != nil {
			fatalf("%v", err)
		}
	}

	out := *outPath
	if out == "" {
		out = cfg.ArtifactPath()
	}
	if out != "" {
		data, err := artifact.Marshal(class)
		if err != nil {
			fatalf("%v", err)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			fatalf("%v", err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", out, len(data))
		}
	}

	if synthErr != nil {
		for _, e := range unjoin(synthErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", e)
		}
		os.Exit(1)
	}
}

// printClass writes a listing of every method and failure of class.
func printClass(w io.Writer, class *artifact.Class, color bool) error {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	fmt.Fprintf(w, "%s %s\n", paint(ansiBold, class.Name), paint(ansiDim, "(class file "+class.Version.String()+")"))
	for i := range class.Methods {
		method := &class.Methods[i]
		listing, err := bytecode.Listing(method.Body())
		if err != nil {
			return fmt.Errorf("%s%s: %w", method.Name, method.Descriptor, err)
		}
		fmt.Fprintf(w, "\n%s %s\n", paint(ansiBold, method.Name+method.Descriptor),
			paint(ansiDim, fmt.Sprintf("stack=%d locals=%d hash=%x", method.MaxStack, method.MaxLocals, method.Hash[:6])))
		for _, line := range strings.Split(strings.TrimRight(listing, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	for _, f := range class.Failures {
		fmt.Fprintf(w, "\n%s %s\n  %s\n", paint(ansiRed, f.Method+f.Descriptor), paint(ansiDim, f.Kind), f.Detail)
	}
	return nil
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
