package stubgen

import (
	"strings"
	"testing"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

func baseDescription() describe.TypeDescription {
	asm := bytecode.NewAssembler(0)
	asm.Emit(bytecode.OpReturnNil)
	return describe.ForFile(&classfile.File{
		Name:       "demo.http-client.Base",
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic,
		Methods: []classfile.Method{
			{
				Name:      classfile.ConstructorName,
				Modifiers: classfile.ModPublic,
				Code:      asm.Chunk(),
			},
			{
				Name:       "greet",
				Modifiers:  classfile.ModPublic,
				ReturnType: classfile.StringClass,
				Code:       asm.Chunk(),
			},
			{
				Name:      "hidden",
				Modifiers: classfile.ModPrivate,
				Code:      asm.Chunk(),
			},
		},
	}, nil)
}

func TestGenerateStubs(t *testing.T) {
	g := &Generator{Package: "demo"}
	code, err := g.Generate(baseDescription())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(code, "package demo") {
		t.Error("expected package declaration")
	}
	if !strings.Contains(code, "DO NOT EDIT") {
		t.Error("expected generated-code header")
	}
	if !strings.Contains(code, `BaseClass = "demo.http-client.Base"`) {
		t.Error("expected class name constant")
	}
	if !strings.Contains(code, `BaseGreetMethod = "greet"`) {
		t.Error("expected method name constant")
	}
	if strings.Contains(code, "hidden") {
		t.Error("private methods must not get constants")
	}
	if strings.Contains(code, "Init") {
		t.Error("constructors must not get constants")
	}
	if !strings.Contains(code, "type Base struct") {
		t.Error("expected typed handle")
	}
	if !strings.Contains(code, "func LoadBase") {
		t.Error("expected loader accessor")
	}
	if !strings.Contains(code, "func (h Base) New()") {
		t.Error("expected instance constructor")
	}
}

func TestGenerateStubsSkipsNewForAbstractTypes(t *testing.T) {
	td := describe.ForFile(&classfile.File{
		Name:      "demo.Marker",
		Modifiers: classfile.ModPublic | classfile.ModInterface,
	}, nil)

	g := &Generator{}
	code, err := g.Generate(td)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "package stubs") {
		t.Error("expected default package name")
	}
	if !strings.Contains(code, `MarkerClass = "demo.Marker"`) {
		t.Error("expected class name constant")
	}
	if strings.Contains(code, "func (h Marker) New()") {
		t.Error("interfaces must not get an instance constructor")
	}
}

func TestGenerateStubsDefaultPackage(t *testing.T) {
	g := &Generator{}
	if _, err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestExportName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"greet", "Greet"},
		{"Base", "Base"},
		{"http-client", "HttpClient"},
		{"greet$original$seed", "GreetOriginalSeed"},
		{"set_value", "SetValue"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := exportName(tc.in); got != tc.want {
			t.Errorf("exportName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
