package pool

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

func marshal(t *testing.T, f *classfile.File) []byte {
	t.Helper()
	data, err := classfile.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal %s: %v", f.Name, err)
	}
	return data
}

func plainFile(name, super string) *classfile.File {
	return &classfile.File{
		Name:       name,
		Superclass: super,
		Modifiers:  classfile.ModPublic,
		Methods: []classfile.Method{
			{Name: "touch", Modifiers: classfile.ModPublic},
		},
	}
}

// ---------------------------------------------------------------------------

func TestPoolDescribesWithoutLoading(t *testing.T) {
	source := NewExplicit(map[string][]byte{
		"demo.Base": marshal(t, plainFile("demo.Base", classfile.ObjectClass)),
		"demo.Sub":  marshal(t, plainFile("demo.Sub", "demo.Base")),
		classfile.ObjectClass: marshal(t, &classfile.File{
			Name:      classfile.ObjectClass,
			Modifiers: classfile.ModPublic,
		}),
	})
	p := New(source, nil)

	td, err := p.Describe("demo.Sub")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if td.Name() != "demo.Sub" || td.DeclaredMethods().Size() != 1 {
		t.Errorf("description = %s with %d methods", td.Name(), td.DeclaredMethods().Size())
	}

	// Hierarchy queries resolve through the same pool.
	super, err := td.Superclass()
	if err != nil {
		t.Fatalf("Superclass: %v", err)
	}
	if super.Name() != "demo.Base" {
		t.Errorf("superclass = %s", super.Name())
	}
}

func TestPoolCachesDescriptions(t *testing.T) {
	reads := 0
	source := SourceFn(func(name string) ([]byte, error) {
		reads++
		if name != "demo.Base" {
			return nil, fmt.Errorf("%w: %s", ErrClassFileNotFound, name)
		}
		return marshal(t, plainFile("demo.Base", classfile.ObjectClass)), nil
	})
	p := New(source, NewSimpleCache())

	first, err := p.Describe("demo.Base")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	second, _ := p.Describe("demo.Base")
	if reads != 1 {
		t.Errorf("source reads = %d, want 1", reads)
	}
	if first != second {
		t.Error("cache must hand out one description per name")
	}

	p.Clear()
	if _, err := p.Describe("demo.Base"); err != nil {
		t.Fatalf("Describe after clear: %v", err)
	}
	if reads != 2 {
		t.Errorf("source reads after clear = %d, want 2", reads)
	}
}

func TestNoOpCacheAlwaysMisses(t *testing.T) {
	c := NoOpCache{}
	if _, ok := c.Find("x"); ok {
		t.Error("no-op cache must miss")
	}
}

func TestPoolRejectsMismatchedName(t *testing.T) {
	source := NewExplicit(map[string][]byte{
		"demo.Lie": marshal(t, plainFile("demo.Truth", classfile.ObjectClass)),
	})
	if _, err := New(source, nil).Describe("demo.Lie"); err == nil {
		t.Error("a source answering with a different class must fail")
	}
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

func TestForClassLoaderWalksParents(t *testing.T) {
	parent := loader.NewClassLoader("parent", loader.Bootstrap())
	child := loader.NewClassLoader("child", parent)
	data := marshal(t, plainFile("demo.Base", classfile.ObjectClass))
	if _, err := parent.Define("demo.Base", data, nil); err != nil {
		t.Fatalf("Define: %v", err)
	}

	source := ForClassLoader(child)
	got, err := source.ClassFile("demo.Base")
	if err != nil {
		t.Fatalf("ClassFile: %v", err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Error("bytes differ from the defined class")
	}
	if _, err := source.ClassFile("demo.Absent"); !errors.Is(err, ErrClassFileNotFound) {
		t.Errorf("err = %v, want ErrClassFileNotFound", err)
	}
}

func TestChainFirstHitWins(t *testing.T) {
	first := NewExplicit(map[string][]byte{"a": []byte{1}})
	second := NewExplicit(map[string][]byte{"a": []byte{2}, "b": []byte{3}})
	chain := Chain(first, second)

	if data, _ := chain.ClassFile("a"); !reflect.DeepEqual(data, []byte{1}) {
		t.Errorf("a = %v", data)
	}
	if data, _ := chain.ClassFile("b"); !reflect.DeepEqual(data, []byte{3}) {
		t.Errorf("b = %v", data)
	}
	if _, err := chain.ClassFile("c"); !errors.Is(err, ErrClassFileNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestExplicitOfSeedsDeclarations(t *testing.T) {
	source, err := ExplicitOf(plainFile("demo.Base", classfile.ObjectClass))
	if err != nil {
		t.Fatalf("ExplicitOf: %v", err)
	}
	if _, err := source.ClassFile("demo.Base"); err != nil {
		t.Errorf("ClassFile: %v", err)
	}
}

// ---------------------------------------------------------------------------
// SQLite store
// ---------------------------------------------------------------------------

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "classes.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	data := marshal(t, plainFile("demo.Base", classfile.ObjectClass))
	if err := store.Put("demo.Base", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.ClassFile("demo.Base")
	if err != nil {
		t.Fatalf("ClassFile: %v", err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Error("stored bytes differ")
	}

	if _, err := store.ClassFile("demo.Absent"); !errors.Is(err, ErrClassFileNotFound) {
		t.Errorf("miss err = %v", err)
	}

	// A store is a regular pool source.
	td, err := New(Chain(store, NewExplicit(map[string][]byte{
		classfile.ObjectClass: marshal(t, &classfile.File{
			Name:      classfile.ObjectClass,
			Modifiers: classfile.ModPublic,
		}),
	})), nil).Describe("demo.Base")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if td.Name() != "demo.Base" {
		t.Errorf("name = %s", td.Name())
	}
}

func TestStorePutReplacesAndDelete(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "classes.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if err := store.Put("demo.A", []byte{1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put("demo.A", []byte{2}); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	if err := store.Put("demo.B", []byte{3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if data, _ := store.ClassFile("demo.A"); !reflect.DeepEqual(data, []byte{2}) {
		t.Errorf("replaced data = %v", data)
	}
	names, err := store.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"demo.A", "demo.B"}) {
		t.Errorf("names = %v", names)
	}

	if err := store.Delete("demo.A"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.ClassFile("demo.A"); !errors.Is(err, ErrClassFileNotFound) {
		t.Errorf("after delete err = %v", err)
	}
}
