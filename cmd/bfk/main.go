// Brainfrick CLI - the main entry point for compiling and running Brainfrick programs
package main

import (
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/brainfrick/cache"
	"github.com/chazu/brainfrick/codegen"
	"github.com/chazu/brainfrick/compiler"
	"github.com/chazu/brainfrick/manifest"
	"github.com/chazu/brainfrick/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("bfk")

func main() {
	showListing := flag.Bool("show", false, "Print the compiled instruction listing before running")
	noOpt := flag.Bool("no-opt", false, "Run the naive interpreter instead of the optimizing compiler")
	emitLLVM := flag.Bool("emit-llvm", false, "Write LLVM IR into the build directory and skip execution")
	build := flag.Bool("build", false, "Write a compiled .bfc artifact into the build directory and skip execution")
	repl := flag.Bool("repl", false, "Start an interactive session")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bfk [options] <file.b>\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and runs a Brainfrick program. A .bfc argument is executed\ndirectly from its compiled artifact.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bfk hello.b              # Compile and run\n")
		fmt.Fprintf(os.Stderr, "  bfk -show hello.b        # Print the optimized listing, then run\n")
		fmt.Fprintf(os.Stderr, "  bfk -no-opt hello.b      # Run unoptimized on the reference interpreter\n")
		fmt.Fprintf(os.Stderr, "  bfk -build hello.b       # Write hello.bfc into the build directory\n")
		fmt.Fprintf(os.Stderr, "  bfk -emit-llvm hello.b   # Write hello.ll into the build directory\n")
		fmt.Fprintf(os.Stderr, "  bfk -repl                # Start a REPL\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	// Manifest discovery is best-effort: no bfk.toml above the working
	// directory means defaults.
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	man, err := manifest.FindAndLoad(wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if man == nil {
		man = manifest.Default()
	} else {
		log.Infof("using manifest %s", filepath.Join(man.Dir, manifest.Filename))
	}

	if *repl {
		runREPL(man)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	// Compiled artifacts run directly, skipping the compiler.
	if strings.HasSuffix(path, ".bfc") {
		prog, err := loadArtifact(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("loaded artifact %s (%d instructions)", path, prog.Len())
		runProgram(prog, man, *showListing)
		return
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *noOpt {
		log.Infof("running %s on the reference interpreter", path)
		interp := vm.NewInterpreterSize(vm.NewStdIO(), man.Machine.TapeSize)
		if err := interp.Run(string(source)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	prog, err := compileCached(string(source), man)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("%d instructions (%d lexed): contracted %d, removed %d no-ops, folded %d clear / %d copy loops",
		prog.Len(), prog.Stats.Lexed, prog.Stats.Contracted, prog.Stats.Removed,
		prog.Stats.ClearLoops, prog.Stats.CopyLoops)

	if *build || *emitLLVM {
		if *build {
			out, err := writeArtifact(prog, path, man)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s\n", out)
		}
		if *emitLLVM {
			out, err := writeLLVM(prog, path, man)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s\n", out)
		}
		return
	}

	runProgram(prog, man, *showListing)
}

// runProgram executes a compiled program on a fresh machine wired to the
// terminal.
func runProgram(prog *compiler.Program, man *manifest.Manifest, show bool) {
	if show {
		if err := prog.WriteListing(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	m := vm.NewMachineSize(prog, vm.NewStdIO(), man.Machine.TapeSize)
	if err := m.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compileCached compiles source, consulting the manifest's artifact cache
// when enabled. A hit skips the compiler entirely.
func compileCached(source string, man *manifest.Manifest) (*compiler.Program, error) {
	if !man.Cache.Enabled {
		return compiler.Compile(source)
	}

	c, err := cache.Open(man.CachePath())
	if err != nil {
		return nil, err
	}
	defer c.Close()

	hash := sha256.Sum256([]byte(source))
	prog, err := c.Get(hash)
	if err == nil {
		log.Infof("cache hit for %x", hash[:8])
		return prog, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}

	prog, err = compiler.Compile(source)
	if err != nil {
		return nil, err
	}
	if err := c.Put(prog); err != nil {
		log.Warningf("cache store failed: %v", err)
		return prog, nil
	}
	log.Infof("cache miss, stored %x", hash[:8])
	return prog, nil
}

// loadArtifact reads and deserializes a compiled .bfc artifact.
func loadArtifact(path string) (*compiler.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compiler.Deserialize(data)
}

// writeArtifact serializes prog into the manifest's build directory as
// <name>.bfc and returns the written path.
func writeArtifact(prog *compiler.Program, srcPath string, man *manifest.Manifest) (string, error) {
	data, err := prog.Serialize()
	if err != nil {
		return "", err
	}
	out := buildPath(srcPath, man, ".bfc")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// writeLLVM lowers prog to LLVM IR in the manifest's build directory as
// <name>.ll and returns the written path.
func writeLLVM(prog *compiler.Program, srcPath string, man *manifest.Manifest) (string, error) {
	text := codegen.EmitText(prog, man.Machine.TapeSize)
	out := buildPath(srcPath, man, ".ll")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// buildPath maps a source path to its output path under the manifest's
// build directory, swapping the extension.
func buildPath(srcPath string, man *manifest.Manifest, ext string) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	return filepath.Join(man.OutputDir(), base+ext)
}
