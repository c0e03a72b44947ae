package agent

import (
	"strings"
	"sync"
	"testing"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/dynamic"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/matcher"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func greeterChunk() *bytecode.Chunk {
	asm := bytecode.NewAssembler(1)
	asm.EmitConst(bytecode.String("hello"))
	asm.Emit(bytecode.OpReturn)
	return asm.Chunk()
}

func constructorChunk() *bytecode.Chunk {
	asm := bytecode.NewAssembler(0)
	asm.Emit(bytecode.OpReturnNil)
	return asm.Chunk()
}

func baseFile() *classfile.File {
	return &classfile.File{
		Name:       "demo.Base",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic,
		Methods: []classfile.Method{
			{
				Name:      classfile.ConstructorName,
				Modifiers: classfile.ModPublic,
				Code:      constructorChunk(),
			},
			{
				Name:       "greet",
				Modifiers:  classfile.ModPublic,
				ReturnType: classfile.StringClass,
				Code:       greeterChunk(),
			},
		},
	}
}

func marshal(t *testing.T, f *classfile.File) []byte {
	t.Helper()
	data, err := classfile.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal %s: %v", f.Name, err)
	}
	return data
}

// newInstrumented returns an app loader with a fresh instrumentation
// attached.
func newInstrumented(t *testing.T) (*loader.ClassLoader, *loader.Instrumentation) {
	t.Helper()
	cl := loader.NewClassLoader("app", loader.Bootstrap())
	in := loader.NewInstrumentation()
	cl.SetInstrumentation(in)
	return cl, in
}

// patchGreet rewrites greet to return the given constant.
func patchGreet(value string) Transformer {
	return TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
		return b.Method(matcher.Named[describe.MethodDescription]("greet")).
			Intercept(dynamic.FixedValue(classfile.StringValue(value)))
	})
}

// recordingListener captures every event for assertions.
type recordingListener struct {
	mu          sync.Mutex
	transformed []string
	ignored     []string
	completed   []string
	errs        []error
}

func (r *recordingListener) OnTransformation(name string, _ *loader.ClassLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformed = append(r.transformed, name)
}

func (r *recordingListener) OnIgnored(name string, _ *loader.ClassLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored = append(r.ignored, name)
}

func (r *recordingListener) OnError(name string, _ *loader.ClassLoader, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingListener) OnComplete(name string, _ *loader.ClassLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, name)
}

func greetListing(t *testing.T, class *loader.Class) string {
	t.Helper()
	for i := range class.File().Methods {
		if class.File().Methods[i].Name == "greet" {
			return bytecode.Disassemble(class.File().Methods[i].Code)
		}
	}
	t.Fatal("greet not found")
	return ""
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestAgentTransformsMatchedType(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		WithNameTransformer(dynamic.Suffixing("agent")).
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	listing := greetListing(t, class)
	if !strings.Contains(listing, `"patched"`) || strings.Contains(listing, `"hello"`) {
		t.Errorf("greet was not rewritten:\n%s", listing)
	}
	moved := false
	for _, m := range class.File().Methods {
		if m.Name == "greet$original$agent" {
			moved = true
			if !m.Modifiers.Has(classfile.ModPrivate) || !m.Modifiers.Has(classfile.ModSynthetic) {
				t.Errorf("moved method modifiers = %v", m.Modifiers)
			}
		}
	}
	if !moved {
		t.Error("original greet body was not rebased")
	}

	if len(rec.transformed) != 1 || rec.transformed[0] != "demo.Base" {
		t.Errorf("transformed = %v", rec.transformed)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completion must fire exactly once, got %v", rec.completed)
	}
	if len(rec.errs) != 0 {
		t.Errorf("errs = %v", rec.errs)
	}
}

func TestAgentUnmatchedTypeIgnored(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		Type(Named("demo.Other")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	data := marshal(t, baseFile())
	class, err := cl.Define("demo.Base", data, nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	if listing := greetListing(t, class); !strings.Contains(listing, `"hello"`) {
		t.Errorf("unmatched class must keep its body:\n%s", listing)
	}
	if len(rec.ignored) != 1 || rec.ignored[0] != "demo.Base" {
		t.Errorf("ignored = %v", rec.ignored)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completion must fire exactly once, got %v", rec.completed)
	}
	if len(rec.transformed) != 0 {
		t.Errorf("transformed = %v", rec.transformed)
	}
}

func TestAgentIgnoreMatcherWins(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		Ignore(NameStartsWith("demo.")).
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if listing := greetListing(t, class); !strings.Contains(listing, `"hello"`) {
		t.Errorf("ignored class must keep its body:\n%s", listing)
	}
	if len(rec.ignored) != 1 {
		t.Errorf("ignored = %v", rec.ignored)
	}
}

func TestAgentFirstMatchingEntryWins(t *testing.T) {
	cl, in := newInstrumented(t)

	_, err := Default().
		Type(NameStartsWith("demo.")).
		Transform(patchGreet("first")).
		Type(Named("demo.Base")).
		Transform(patchGreet("second")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	listing := greetListing(t, class)
	if !strings.Contains(listing, `"first"`) || strings.Contains(listing, `"second"`) {
		t.Errorf("first entry must win:\n%s", listing)
	}
}

// ---------------------------------------------------------------------------
// Self initialization
// ---------------------------------------------------------------------------

func TestAgentSelfInitialization(t *testing.T) {
	cl, in := newInstrumented(t)

	_, err := Default().
		Type(Named("demo.Base")).
		Transform(TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
			return b.RequireInitializer(dynamic.ForStaticField{Field: "marker", Value: "live"})
		})).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if class.File().Flags&classfile.FlagBootstrap == 0 {
		t.Error("self-initializing class must carry the bootstrap flag")
	}
	if v, ok := class.Static("marker"); !ok || v != "live" {
		t.Errorf("static marker = %v, %v", v, ok)
	}
}

func TestAgentDisabledSelfInitialization(t *testing.T) {
	cl, in := newInstrumented(t)

	_, err := Default().
		DisableSelfInitialization().
		Type(Named("demo.Base")).
		Transform(TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
			return b.RequireInitializer(dynamic.ForStaticField{Field: "marker", Value: "live"})
		})).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if _, ok := class.Static("marker"); ok {
		t.Error("disabled strategy must not run initializers")
	}
}

// ---------------------------------------------------------------------------
// Failure containment
// ---------------------------------------------------------------------------

func TestAgentGenerationErrorDoesNotEscape(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		Type(Named("demo.Base")).
		Transform(TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
			// Annotation members are invalid outside annotation types, so
			// assembly fails.
			return b.DefineMember("broken", classfile.StringClass, nil)
		})).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("a failed transformation must not fail the definition: %v", err)
	}
	if listing := greetListing(t, class); !strings.Contains(listing, `"hello"`) {
		t.Errorf("failed transformation must keep the original body:\n%s", listing)
	}
	if len(rec.errs) != 1 {
		t.Errorf("errs = %v", rec.errs)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completion must fire exactly once, got %v", rec.completed)
	}
}

func TestAgentPanicDoesNotEscape(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		Type(Named("demo.Base")).
		Transform(TransformerFn(func(*dynamic.Builder, describe.TypeDescription) *dynamic.Builder {
			panic("boom")
		})).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("a panicking transformation must not fail the definition: %v", err)
	}
	if listing := greetListing(t, class); !strings.Contains(listing, `"hello"`) {
		t.Errorf("panicking transformation must keep the original body:\n%s", listing)
	}
	if len(rec.errs) != 1 || !strings.Contains(rec.errs[0].Error(), "boom") {
		t.Errorf("errs = %v", rec.errs)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completion must fire exactly once, got %v", rec.completed)
	}
}

func TestAgentUndecodableBytesReported(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	if _, err := cl.Define("demo.Base", []byte{0xff, 0x00}, nil); err == nil {
		t.Fatal("garbage bytes must still fail linking")
	}
	if len(rec.errs) != 1 {
		t.Errorf("errs = %v", rec.errs)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completion must fire exactly once, got %v", rec.completed)
	}
}

// ---------------------------------------------------------------------------
// Auxiliary injection
// ---------------------------------------------------------------------------

func TestAgentConstructorInterceptionInjectsPlaceholder(t *testing.T) {
	cl, in := newInstrumented(t)
	rec := &recordingListener{}

	_, err := Default().
		WithListener(rec).
		WithNameTransformer(dynamic.Suffixing("agent")).
		Type(NameStartsWith("demo.")).
		Transform(TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
			return b.Method(matcher.IsConstructor()).Intercept(dynamic.Stub())
		})).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	if _, err := cl.Define("demo.Base", marshal(t, baseFile()), nil); err != nil {
		t.Fatalf("Define: %v", err)
	}

	placeholder := ""
	for _, name := range cl.DefinedNames() {
		if strings.Contains(name, "$placeholder$") {
			placeholder = name
		}
	}
	if placeholder == "" {
		t.Fatalf("placeholder was not injected, defined = %v", cl.DefinedNames())
	}

	// The placeholder matches the demo. prefix but passes through the
	// chain untouched while it is being injected.
	for _, name := range rec.transformed {
		if name == placeholder {
			t.Error("auxiliary type must not be transformed")
		}
	}
	if len(rec.transformed) != 1 || rec.transformed[0] != "demo.Base" {
		t.Errorf("transformed = %v", rec.transformed)
	}
}

// ---------------------------------------------------------------------------
// Retransformation
// ---------------------------------------------------------------------------

func TestAgentRetransformation(t *testing.T) {
	cl := loader.NewClassLoader("app", loader.Bootstrap())
	class, err := cl.Define("demo.Base", marshal(t, baseFile()), nil)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	in := loader.NewInstrumentation()
	cl.SetInstrumentation(in)
	_, err = Default().
		AllowRetransformation().
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	retransformed, err := in.Retransform(cl, "demo.Base")
	if err != nil {
		t.Fatalf("Retransform: %v", err)
	}
	if retransformed == class {
		t.Error("retransformation must produce a new class object")
	}
	if listing := greetListing(t, retransformed); !strings.Contains(listing, `"patched"`) {
		t.Errorf("retransformed body:\n%s", listing)
	}
}

func TestAgentWithoutRetransformationSkipsLinkedClasses(t *testing.T) {
	cl := loader.NewClassLoader("app", loader.Bootstrap())
	if _, err := cl.Define("demo.Base", marshal(t, baseFile()), nil); err != nil {
		t.Fatalf("Define: %v", err)
	}

	in := loader.NewInstrumentation()
	cl.SetInstrumentation(in)
	if _, err := Default().
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in); err != nil {
		t.Fatalf("InstallOn: %v", err)
	}

	retransformed, err := in.Retransform(cl, "demo.Base")
	if err != nil {
		t.Fatalf("Retransform: %v", err)
	}
	if listing := greetListing(t, retransformed); !strings.Contains(listing, `"hello"`) {
		t.Errorf("chain without the retransformation flag must not run:\n%s", listing)
	}
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

func TestBuilderForksAreIndependent(t *testing.T) {
	base := Default()
	derived := base.Type(Named("demo.Base")).Transform(patchGreet("patched"))

	if got := len(base.MakeRaw().entries); got != 0 {
		t.Errorf("base builder gained %d entries", got)
	}
	if got := len(derived.MakeRaw().entries); got != 1 {
		t.Errorf("derived builder entries = %d", got)
	}
}

func TestInstallAppliesNativeMethodPrefix(t *testing.T) {
	in := loader.NewInstrumentation()
	_, err := Default().
		WithNativeMethodPrefix("bb$").
		Type(Named("demo.Base")).
		Transform(patchGreet("patched")).
		InstallOn(in)
	if err != nil {
		t.Fatalf("InstallOn: %v", err)
	}
	prefixes := in.NativeMethodPrefixes()
	if len(prefixes) != 1 || prefixes[0] != "bb$" {
		t.Errorf("prefixes = %v", prefixes)
	}
}

// ---------------------------------------------------------------------------
// Listeners and matchers
// ---------------------------------------------------------------------------

func TestCompoundListenerFansOut(t *testing.T) {
	first, second := &recordingListener{}, &recordingListener{}
	c := CompoundListener{first, second}

	c.OnTransformation("demo.Base", nil)
	c.OnComplete("demo.Base", nil)

	for _, rec := range []*recordingListener{first, second} {
		if len(rec.transformed) != 1 || len(rec.completed) != 1 {
			t.Errorf("listener missed events: %+v", rec)
		}
	}
}

func TestRawMatchers(t *testing.T) {
	td := describe.ForFile(baseFile(), nil)
	app := loader.NewClassLoader("app", nil)

	cases := []struct {
		name string
		raw  RawMatcher
		want bool
	}{
		{"named hit", Named("demo.Base"), true},
		{"named miss", Named("demo.Other"), false},
		{"prefix", NameStartsWith("demo."), true},
		{"glob", NameGlob("demo.*"), true},
		{"glob miss", NameGlob("web.*"), false},
		{"in loader", InLoader("app"), true},
		{"in other loader", InLoader("sys"), false},
	}
	for _, tc := range cases {
		if got := tc.raw.Matches(td, app, nil); got != tc.want {
			t.Errorf("%s: got %v", tc.name, got)
		}
	}
}
