package dynamic

import (
	"strings"
	"testing"

	"github.com/Shredder121/byte-buddy/attr"
	"github.com/Shredder121/byte-buddy/bind"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/matcher"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func define(t *testing.T, cl *loader.ClassLoader, f *classfile.File) *loader.Class {
	t.Helper()
	data, err := classfile.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal %s: %v", f.Name, err)
	}
	class, err := cl.Define(f.Name, data, nil)
	if err != nil {
		t.Fatalf("Define %s: %v", f.Name, err)
	}
	return class
}

func greeterChunk() *bytecode.Chunk {
	asm := bytecode.NewAssembler(1)
	asm.EmitConst(bytecode.String("hello"))
	asm.Emit(bytecode.OpReturn)
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
				Code:      defaultConstructorChunk(),
			},
			{
				Name:       "greet",
				Modifiers:  classfile.ModPublic,
				ReturnType: classfile.StringClass,
				Parameters: []classfile.Parameter{{Name: "who", TypeName: classfile.StringClass}},
				Code:       greeterChunk(),
			},
			{
				Name:      "seal",
				Modifiers: classfile.ModPublic | classfile.ModFinal,
				Code:      greeterChunk(),
			},
		},
	}
}

func newLoader(t *testing.T) (*loader.ClassLoader, describe.TypeResolver) {
	t.Helper()
	cl := loader.NewClassLoader("app", loader.Bootstrap())
	define(t, cl, baseFile())
	return cl, describe.ResolverFor(cl)
}

func unmarshal(t *testing.T, data []byte) *classfile.File {
	t.Helper()
	f, err := classfile.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return f
}

// ---------------------------------------------------------------------------
// Makers
// ---------------------------------------------------------------------------

func TestSubclassWithDefaultConstructor(t *testing.T) {
	cl, resolver := newLoader(t)

	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", DefaultConstructor).Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	class, err := unloaded.Load(cl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	file := class.File()
	if len(file.Methods) != 1 || !file.Methods[0].IsConstructor() {
		t.Fatalf("expected exactly one constructor, got %d methods", len(file.Methods))
	}
	base, _ := cl.Load("demo.Base")
	if !base.IsAssignableFrom(class) {
		t.Error("generated subclass must be assignable to its superclass")
	}
	if class == base {
		t.Error("generated subclass must be a distinct class")
	}
	if _, err := class.New(); err != nil {
		t.Errorf("New: %v", err)
	}
}

func TestSubclassImitatesSuperConstructors(t *testing.T) {
	cl, resolver := newLoader(t)
	define(t, cl, &classfile.File{
		Name:       "demo.Parent",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic,
		Methods: []classfile.Method{
			{
				Name:      classfile.ConstructorName,
				Modifiers: classfile.ModPublic,
				Parameters: []classfile.Parameter{
					{Name: "size", TypeName: classfile.IntClass},
				},
				Code: greeterChunk(),
			},
			{
				Name:      classfile.ConstructorName,
				Modifiers: classfile.ModPrivate,
				Parameters: []classfile.Parameter{
					{Name: "a", TypeName: classfile.IntClass},
					{Name: "b", TypeName: classfile.IntClass},
				},
				Code: greeterChunk(),
			},
		},
	})

	unloaded, err := Subclass(resolver, "demo.Imitator", "demo.Parent", ImitateSuperclass).Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	file := unmarshal(t, unloaded.Bytes())
	if len(file.Methods) != 1 {
		t.Fatalf("private super constructors must not be imitated, got %d", len(file.Methods))
	}
	ctor := file.Methods[0]
	if !ctor.IsConstructor() || len(ctor.Parameters) != 1 || ctor.Parameters[0].TypeName != classfile.IntClass {
		t.Errorf("imitated constructor = %+v", ctor)
	}
}

func TestSubclassConfigurationErrors(t *testing.T) {
	cl, resolver := newLoader(t)
	define(t, cl, &classfile.File{
		Name:       "demo.Sealed",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic | classfile.ModFinal,
	})
	define(t, cl, &classfile.File{
		Name:      "demo.Marker",
		Modifiers: classfile.ModPublic | classfile.ModInterface | classfile.ModAbstract,
	})

	if _, err := Subclass(resolver, "demo.Bad", "demo.Sealed", NoConstructors).Make(); err == nil {
		t.Error("subclassing a final class must fail")
	}
	if _, err := Subclass(resolver, "demo.Bad", "demo.Marker", NoConstructors).Make(); err == nil {
		t.Error("subclassing an interface must fail")
	}
	if _, err := Subclass(resolver, "demo.Bad", "demo.Absent", NoConstructors).Make(); err == nil {
		t.Error("an unresolvable superclass must fail")
	}
}

func TestInterfaceMaker(t *testing.T) {
	cl, resolver := newLoader(t)
	unloaded, err := Interface(resolver, "demo.Greeter").
		DefineMethod(classfile.Method{
			Name:       "greet",
			Modifiers:  classfile.ModPublic | classfile.ModAbstract,
			ReturnType: classfile.StringClass,
		}).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	class, err := unloaded.Load(cl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !class.IsInterface() {
		t.Error("built type must be an interface")
	}
	if len(class.File().Methods) != 1 {
		t.Errorf("methods = %d", len(class.File().Methods))
	}
}

func TestEnumerationMaker(t *testing.T) {
	cl, resolver := newLoader(t)
	unloaded, err := Enumeration(resolver, "demo.Color", "red", "green").Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	class, err := unloaded.Load(cl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !class.IsEnum() {
		t.Error("built type must be an enumeration")
	}
	if class.Ordinal("red") != 0 || class.Ordinal("green") != 1 {
		t.Errorf("ordinals = %d, %d", class.Ordinal("red"), class.Ordinal("green"))
	}

	if _, err := Enumeration(resolver, "demo.Empty").Make(); err == nil {
		t.Error("an enumeration without constants must fail")
	}
}

func TestAnnotationMaker(t *testing.T) {
	cl, resolver := newLoader(t)
	level := classfile.IntValue(3)
	unloaded, err := Annotation(resolver, "demo.Traced").
		DefineMember("level", classfile.IntClass, &level).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := unloaded.Load(cl); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The built annotation type must support typed preparation.
	loadable, err := describe.AnnotationFor(&classfile.Annotation{TypeName: "demo.Traced"}, resolver).Prepare()
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if loadable.Int("level") != 3 {
		t.Errorf("default level = %d", loadable.Int("level"))
	}

	_, err = Subclass(resolver, "demo.Bad", "demo.Base", NoConstructors).
		DefineMember("level", classfile.IntClass, nil).
		Make()
	if err == nil {
		t.Error("members on a non-annotation builder must fail")
	}
}

// ---------------------------------------------------------------------------
// Interception
// ---------------------------------------------------------------------------

func TestInterceptionGeneratesOverrides(t *testing.T) {
	_, resolver := newLoader(t)
	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(Stub()).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	file := unmarshal(t, unloaded.Bytes())
	greet := fileMethod(t, file, "greet")
	if greet.Code == nil || len(greet.Code.Code) == 0 {
		t.Fatal("intercepted method must carry code")
	}
	if greet.Code.Code[0] != byte(bytecode.OpReturnNil) {
		t.Errorf("stub body = %s", bytecode.Disassemble(greet.Code))
	}
	// Final methods are not overridable and must not be generated.
	for _, m := range file.Methods {
		if m.Name == "seal" {
			t.Error("final super method must not be overridden")
		}
	}
}

func TestMostRecentInterceptionWins(t *testing.T) {
	_, resolver := newLoader(t)
	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(FixedValue(classfile.StringValue("v1"))).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(FixedValue(classfile.StringValue("v2"))).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	greet := fileMethod(t, unmarshal(t, unloaded.Bytes()), "greet")
	listing := bytecode.Disassemble(greet.Code)
	if !strings.Contains(listing, `"v2"`) || strings.Contains(listing, `"v1"`) {
		t.Errorf("most recent interception must win:\n%s", listing)
	}
}

func TestSuperMethodCallImplementation(t *testing.T) {
	_, resolver := newLoader(t)
	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(SuperMethodCall()).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	greet := fileMethod(t, unmarshal(t, unloaded.Bytes()), "greet")
	listing := bytecode.Disassemble(greet.Code)
	if !strings.Contains(listing, "invoke-super") {
		t.Errorf("expected super invocation:\n%s", listing)
	}
}

func TestDelegationImplementation(t *testing.T) {
	cl, resolver := newLoader(t)
	delegateFile := &classfile.File{
		Name:       "demo.Delegate",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic,
		Methods: []classfile.Method{
			{
				Name:       "handle",
				Modifiers:  classfile.ModPublic | classfile.ModStatic,
				ReturnType: classfile.StringClass,
				Parameters: []classfile.Parameter{{Name: "who", TypeName: classfile.StringClass}},
				Code:       greeterChunk(),
			},
		},
	}
	define(t, cl, delegateFile)
	for _, ann := range bind.AnnotationTypes() {
		define(t, cl, ann)
	}
	delegate, err := resolver.Describe("demo.Delegate")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(Delegation(delegate)).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	greet := fileMethod(t, unmarshal(t, unloaded.Bytes()), "greet")
	if !strings.Contains(bytecode.Disassemble(greet.Code), "invoke-static") {
		t.Errorf("delegation body:\n%s", bytecode.Disassemble(greet.Code))
	}
}

func TestDelegationFailureFailsMake(t *testing.T) {
	cl, resolver := newLoader(t)
	define(t, cl, &classfile.File{
		Name:       "demo.Empty",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic,
	})
	delegate, _ := resolver.Describe("demo.Empty")

	_, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(Delegation(delegate)).
		Make()
	if err == nil {
		t.Fatal("a method no delegate can serve must fail the build")
	}
}

// ---------------------------------------------------------------------------
// Loading and initializers
// ---------------------------------------------------------------------------

func TestLoadRunsInitializers(t *testing.T) {
	cl, resolver := newLoader(t)
	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		RequireInitializer(ForStaticField{Field: "handler", Value: "live"}).
		RequireInitializer(NoOpInitializer{}).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	class, err := unloaded.Load(cl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := class.Static("handler"); !ok || v != "live" {
		t.Errorf("static handler = %v, %v", v, ok)
	}
}

func TestCompoundInitializer(t *testing.T) {
	if (CompoundInitializer{NoOpInitializer{}}).IsAlive() {
		t.Error("a compound of dead parts is dead")
	}
	compound := CompoundInitializer{
		NoOpInitializer{},
		ForStaticField{Field: "a", Value: 1},
	}
	if !compound.IsAlive() {
		t.Error("a compound with one alive part is alive")
	}
}

func TestAnnotateAppendsAttributes(t *testing.T) {
	cl, resolver := newLoader(t)
	define(t, cl, &classfile.File{
		Name:       "demo.Tag",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic | classfile.ModAnnotation | classfile.ModAbstract,
	})
	list := describe.Annotations(resolver, []classfile.Annotation{{TypeName: "demo.Tag"}})

	unloaded, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Annotate(attr.ForAnnotations(list, attr.AppendDefaults())).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	file := unmarshal(t, unloaded.Bytes())
	if len(file.Annotations) != 1 || file.Annotations[0].TypeName != "demo.Tag" {
		t.Errorf("annotations = %+v", file.Annotations)
	}
}

// ---------------------------------------------------------------------------
// Rebasing
// ---------------------------------------------------------------------------

func TestRebaseMovesOriginalBody(t *testing.T) {
	_, resolver := newLoader(t)
	unloaded, err := Rebase(baseFile(), resolver, Suffixing("seed")).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(Stub()).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	file := unmarshal(t, unloaded.Bytes())

	greet := fileMethod(t, file, "greet")
	if greet.Code.Code[0] != byte(bytecode.OpReturnNil) {
		t.Errorf("public slot must carry the new body:\n%s", bytecode.Disassemble(greet.Code))
	}
	moved := fileMethod(t, file, "greet$original$seed")
	if !moved.Modifiers.Has(classfile.ModPrivate) || !moved.Modifiers.Has(classfile.ModSynthetic) {
		t.Errorf("moved method modifiers = %v", moved.Modifiers)
	}
	if !strings.Contains(bytecode.Disassemble(moved.Code), `"hello"`) {
		t.Error("moved method must keep the original body")
	}
	if len(unloaded.Auxiliaries()) != 0 {
		t.Error("rebasing plain methods needs no placeholder")
	}
}

func TestRebaseOriginalMethodCallReachesMovedBody(t *testing.T) {
	_, resolver := newLoader(t)
	unloaded, err := Rebase(baseFile(), resolver, Suffixing("seed")).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(OriginalMethodCall()).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	file := unmarshal(t, unloaded.Bytes())

	greet := fileMethod(t, file, "greet")
	listing := bytecode.Disassemble(greet.Code)
	if !strings.Contains(listing, "invoke") || !strings.Contains(listing, "greet$original$seed") {
		t.Errorf("new body must call the relocated body:\n%s", listing)
	}
	if strings.Contains(listing, "invoke-super") {
		t.Errorf("relocated body lives in the same class:\n%s", listing)
	}
	moved := fileMethod(t, file, "greet$original$seed")
	if !strings.Contains(bytecode.Disassemble(moved.Code), `"hello"`) {
		t.Error("relocated body must keep the original code")
	}
}

func TestOriginalMethodCallOutsideRebaseFails(t *testing.T) {
	_, resolver := newLoader(t)
	_, err := Subclass(resolver, "demo.Gen", "demo.Base", NoConstructors).
		Method(matcher.Named[describe.MethodDescription]("greet")).
		Intercept(OriginalMethodCall()).
		Make()
	if err == nil {
		t.Fatal("subclassing has no relocated body to call")
	}
}

func TestRebaseConstructorAddsPlaceholder(t *testing.T) {
	cl, resolver := newLoader(t)
	unloaded, err := Rebase(baseFile(), resolver, Suffixing("seed")).
		Method(matcher.IsConstructor()).
		Intercept(Stub()).
		Make()
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	aux := unloaded.Auxiliaries()
	if len(aux) != 1 || !strings.Contains(aux[0].Name, "$placeholder$") {
		t.Fatalf("auxiliaries = %+v", aux)
	}
	if _, ok := fileMethodLookup(unmarshal(t, unloaded.Bytes()), "init$original$seed"); !ok {
		t.Error("moved constructor body missing")
	}

	// Loading must inject the placeholder before the rebased class.
	fresh := loader.NewClassLoader("fresh", cl.Parent())
	if _, err := unloaded.Load(fresh); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, defined := fresh.Defined(aux[0].Name); !defined {
		t.Error("placeholder was not injected")
	}
}

func TestNameTransformers(t *testing.T) {
	if got := Suffixing("x").Transform("<init>"); got != "init$original$x" {
		t.Errorf("suffixing = %s", got)
	}
	if got := Prefixing("native$").Transform("greet"); got != "native$greet" {
		t.Errorf("prefixing = %s", got)
	}
	first := RandomSuffixing().Transform("m")
	second := RandomSuffixing().Transform("m")
	if first == second {
		t.Errorf("random seeds collided: %s", first)
	}
}

// ---------------------------------------------------------------------------

func fileMethod(t *testing.T, f *classfile.File, name string) *classfile.Method {
	t.Helper()
	m, ok := fileMethodLookup(f, name)
	if !ok {
		t.Fatalf("method %s not found", name)
	}
	return m
}

func fileMethodLookup(f *classfile.File, name string) (*classfile.Method, bool) {
	for i := range f.Methods {
		if f.Methods[i].Name == name {
			return &f.Methods[i], true
		}
	}
	return nil, false
}
