package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-runtime/component"
	"github.com/wippyai/wasm-runtime/runtime"
	"github.com/wippyai/wasm-runtime/wasi/preview2"

	"github.com/wippyai/wasi-virtfs"
	"github.com/wippyai/wasi-virtfs/filesystem"
	"github.com/wippyai/wasi-virtfs/snapshot"
	"github.com/wippyai/wasi-virtfs/vfs"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to component wasm file")
		funcName    = flag.String("func", "", "Function to call (optional)")
		strArg      = flag.String("arg", "", "String argument to pass")
		envVars     = flag.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2)")
		cliArgs     = flag.String("argv", "", "CLI arguments (comma-separated)")
		stdin       = flag.String("stdin", "", "Stdin data")
		list        = flag.Bool("list", false, "List exported functions and exit")
		dir         = flag.String("dir", "", "Host directory to snapshot into the virtual tree")
		manifest    = flag.String("manifest", "", "JSON manifest describing the virtual tree")
		preopen     = flag.String("preopen", filesystem.DefaultPreopen, "Guest-visible path of the preopened root")
		printTree   = flag.Bool("print-tree", false, "Print the virtual tree and exit")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive virtual tree browser")
	)
	flag.Parse()

	tree, err := buildTree(*dir, *manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *printTree {
		dumpTree(tree)
		return
	}

	if *interactive {
		if err := runBrowser(tree); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: vfsrun -wasm <file.wasm> [-dir path | -manifest file] [-func name] [-arg string]")
		fmt.Fprintln(os.Stderr, "       vfsrun -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       vfsrun [-dir path | -manifest file] -print-tree")
		fmt.Fprintln(os.Stderr, "       vfsrun [-dir path | -manifest file] -i  (interactive tree browser)")
		os.Exit(1)
	}

	if err := run(tree, *wasmFile, *funcName, *strArg, *envVars, *cliArgs, *stdin, *preopen, *list, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildTree assembles the virtual tree from the selected source. With no
// source flag a small built-in sample is served.
func buildTree(dir, manifest string) (*vfs.Tree, error) {
	switch {
	case dir != "" && manifest != "":
		return nil, fmt.Errorf("-dir and -manifest are mutually exclusive")
	case manifest != "":
		return snapshot.LoadFile(manifest)
	case dir != "":
		return snapshot.FromDir(dir)
	default:
		return sampleTree()
	}
}

func sampleTree() (*vfs.Tree, error) {
	return vfs.New(vfs.Map{
		"README.md":        {Data: []byte("A small virtual filesystem, served from memory.\n")},
		"src/main.rs":      {Data: []byte("fn main() { println!(\"hello\"); }\n")},
		"src/lib.rs":       {Data: []byte("pub fn answer() -> u32 { 42 }\n")},
		"docs/guide.md":    {Data: []byte("# Guide\n\nNothing here touches the disk.\n")},
		"data/empty.bin":   {},
		"data/raw":         {Dir: true},
		".gitignore":       {Data: []byte("target/\n")},
		"Cargo.toml":       {Data: []byte("[package]\nname = \"sample\"\n")},
		"tests/smoke.rs":   {Data: []byte("#[test]\nfn smoke() {}\n")},
		"docs/internal.md": {Data: []byte("internal notes\n")},
	})
}

func dumpTree(tree *vfs.Tree) {
	fmt.Println("/")
	tree.Walk(func(path string, n *vfs.Node) error {
		depth := strings.Count(path, "/")
		indent := strings.Repeat("  ", depth)
		if n.IsDir() {
			fmt.Printf("%s%s/\n", indent, n.Name())
		} else {
			fmt.Printf("%s%s (%d bytes)\n", indent, n.Name(), n.Size())
		}
		return nil
	})
	files, dirs, size := tree.Stats()
	fmt.Printf("\n%d files, %d directories, %d bytes\n", files, dirs, size)
}

func run(tree *vfs.Tree, wasmFile, funcName, strArg, envStr, argvStr, stdinStr, preopen string, listOnly, verbose bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer dev.Sync()
		log = dev
	}

	// Read component
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	// Validate component
	validated, err := component.DecodeAndValidate(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	// Show component info
	fmt.Printf("Component: %s\n", wasmFile)
	fmt.Printf("Core modules: %d\n", len(validated.Raw.CoreModules))
	fmt.Printf("Imports: %d\n", len(validated.Raw.Imports))
	fmt.Printf("Exports: %d\n", len(validated.Raw.Exports))

	// List exported functions
	resolver := component.NewTypeResolverWithInstances(
		validated.Raw.TypeIndexSpace,
		validated.Raw.InstanceTypes,
	)
	reg, err := component.NewCanonRegistry(validated.Raw, resolver)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	fmt.Printf("\nExported functions:\n")
	var exportedFuncs []string
	for name, lift := range reg.Lifts {
		exportedFuncs = append(exportedFuncs, name)
		var params []string
		for i, p := range lift.Params {
			pname := fmt.Sprintf("arg%d", i)
			if i < len(lift.ParamNames) && lift.ParamNames[i] != "" {
				pname = lift.ParamNames[i]
			}
			params = append(params, pname+": "+witTypeStr(p))
		}
		result := ""
		if len(lift.Results) > 0 {
			result = " -> " + witTypeStr(lift.Results[0])
		}
		fmt.Printf("  %s(%s)%s\n", name, strings.Join(params, ", "), result)
	}
	sort.Strings(exportedFuncs)

	if listOnly {
		return nil
	}

	files, dirs, size := tree.Stats()
	fmt.Printf("\nVirtual tree: %d files, %d directories, %d bytes at %q\n", files, dirs, size, preopen)

	provider := filesystem.NewProvider(tree).WithLogger(log).WithPreopen(preopen)
	defer provider.Close()

	// Create runtime
	rt, err := runtime.New(ctx)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	// Create WASI configuration
	wasi := preview2.New()
	defer wasi.Close()

	// Configure environment
	if envStr != "" {
		env := make(map[string]string)
		for _, kv := range strings.Split(envStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				env[parts[0]] = parts[1]
			}
		}
		wasi.WithEnv(env)
	}

	// Configure CLI args
	if argvStr != "" {
		wasi.WithArgs(strings.Split(argvStr, ","))
	}

	// Configure stdin
	if stdinStr != "" {
		wasi.WithStdin([]byte(stdinStr))
	}

	// Register WASI with the virtual filesystem in place of the stock one
	if err := virtfs.RegisterWASI(rt, wasi, provider); err != nil {
		return fmt.Errorf("register WASI: %w", err)
	}

	// Load component
	module, err := rt.LoadComponent(ctx, data)
	if err != nil {
		return fmt.Errorf("load component: %w", err)
	}

	// Instantiate
	fmt.Printf("\nInstantiating component...\n")
	instance, err := module.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer instance.Close(ctx)

	// If no function specified, try common entry points
	if funcName == "" {
		for _, name := range []string{"_start", "run", "main"} {
			for _, f := range exportedFuncs {
				if f == name {
					funcName = name
					break
				}
			}
			if funcName != "" {
				break
			}
		}
		if funcName == "" && len(exportedFuncs) == 1 {
			funcName = exportedFuncs[0]
		}
		if funcName == "" {
			fmt.Printf("\nNo function specified and no common entry point found.\n")
			fmt.Printf("Use -func to specify a function to call.\n")
			return nil
		}
	}

	// Call function
	fmt.Printf("\nCalling %s", funcName)
	var result any
	if strArg != "" {
		fmt.Printf("(%q)...\n", strArg)
		result, err = instance.Call(ctx, funcName, strArg)
	} else {
		fmt.Printf("()...\n")
		result, err = instance.Call(ctx, funcName)
	}

	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	fmt.Printf("Result: %v\n", result)

	// Print stdout/stderr if any
	stdout := wasi.Stdout()
	if len(stdout) > 0 {
		fmt.Printf("\n--- stdout ---\n%s", stdout)
	}
	stderr := wasi.Stderr()
	if len(stderr) > 0 {
		fmt.Printf("\n--- stderr ---\n%s", stderr)
	}

	return nil
}
