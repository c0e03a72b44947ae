// bb - the byte-buddy CLI: applies manifest rules to stored class
// files, inspects them and generates Go stubs.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/Shredder121/byte-buddy/agent"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/manifest"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
	"github.com/Shredder121/byte-buddy/pool"
	"github.com/Shredder121/byte-buddy/stubgen"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:])
	case "inspect":
		err = runInspect(args[1:])
	case "stub":
		err = runStub(args[1:])
	case "version":
		fmt.Printf("bb %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: bb <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  generate   Apply manifest rules to the stored class files\n")
	fmt.Fprintf(os.Stderr, "  inspect    Dump a stored class file\n")
	fmt.Fprintf(os.Stderr, "  stub       Generate Go stubs for stored classes\n")
	fmt.Fprintf(os.Stderr, "  version    Print the version\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  bb generate -v                 # Transform every stored class\n")
	fmt.Fprintf(os.Stderr, "  bb inspect demo.Base           # Show methods and bytecode\n")
	fmt.Fprintf(os.Stderr, "  bb stub -pkg demo demo.Base    # Emit Go stubs to stdout\n")
}

// loadProject locates the manifest and opens its class file store.
func loadProject(dir string) (*manifest.Manifest, *pool.Store, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, fmt.Errorf("no %s found from %s upward", manifest.FileName, dir)
	}
	store, err := m.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("%s configures no [store]", manifest.FileName)
	}
	return m, store, nil
}

// runGenerate defines every stored class through the manifest's agent
// and writes the transformed bytes back.
func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	dir := fs.String("C", ".", "Project directory")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	m, store, err := loadProject(*dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if *verbose {
		commonlog.Configure(1, nil)
	}

	b := m.Builder(store)
	if *verbose {
		b = b.WithListener(agent.NewLoggingListener("bb.agent"))
	}

	cl := loader.NewClassLoader("bb", loader.Bootstrap())
	in := loader.NewInstrumentation()
	cl.SetInstrumentation(in)
	if _, err := b.InstallOn(in); err != nil {
		return err
	}

	names, err := store.Names()
	if err != nil {
		return err
	}

	// Classes may extend other stored classes, so keep retrying until a
	// full pass makes no progress.
	generated := 0
	pending := names
	for len(pending) > 0 {
		var stuck []string
		var lastErr error
		for _, name := range pending {
			data, err := store.ClassFile(name)
			if err != nil {
				return err
			}
			class, err := cl.Define(name, data, nil)
			if err != nil {
				stuck = append(stuck, name)
				lastErr = err
				continue
			}
			if err := store.Put(name, class.Bytes()); err != nil {
				return err
			}
			generated++
		}
		if len(stuck) == len(pending) {
			return fmt.Errorf("defining %s: %w", stuck[0], lastErr)
		}
		pending = stuck
	}
	if *verbose {
		fmt.Printf("Generated %d classes\n", generated)
	}
	return nil
}

// runInspect prints a stored class file with disassembled method bodies.
func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dir := fs.String("C", ".", "Project directory")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("inspect takes exactly one class name")
	}
	name := fs.Arg(0)

	_, store, err := loadProject(*dir)
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := store.ClassFile(name)
	if err != nil {
		return err
	}
	file, err := classfile.Unmarshal(data)
	if err != nil {
		return err
	}

	fmt.Printf("class %s\n", file.Name)
	if file.Superclass != "" {
		fmt.Printf("  extends    %s\n", file.Superclass)
	}
	if len(file.Interfaces) > 0 {
		fmt.Printf("  implements %s\n", strings.Join(file.Interfaces, ", "))
	}
	for _, ann := range file.Annotations {
		fmt.Printf("  @%s\n", ann.TypeName)
	}
	for i := range file.Methods {
		m := &file.Methods[i]
		ret := m.ReturnType
		if ret == "" {
			ret = "void"
		}
		fmt.Printf("\n  %s(%s) %s\n", m.Name, strings.Join(parameterTypes(m), ", "), ret)
		if m.Code != nil {
			for _, line := range strings.Split(strings.TrimRight(bytecode.Disassemble(m.Code), "\n"), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
	return nil
}

func parameterTypes(m *classfile.Method) []string {
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = p.TypeName
	}
	return types
}

// runStub emits Go stubs for stored classes.
func runStub(args []string) error {
	fs := flag.NewFlagSet("stub", flag.ExitOnError)
	dir := fs.String("C", ".", "Project directory")
	pkg := fs.String("pkg", "stubs", "Package name of the generated file")
	out := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("stub takes at least one class name")
	}

	_, store, err := loadProject(*dir)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pool.New(store, nil)
	g := &stubgen.Generator{Package: *pkg}
	var described []describe.TypeDescription
	for _, name := range fs.Args() {
		td, err := p.Describe(name)
		if err != nil {
			return err
		}
		described = append(described, td)
	}
	code, err := g.Generate(described...)
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Print(code)
		return nil
	}
	return os.WriteFile(*out, []byte(code), 0644)
}
