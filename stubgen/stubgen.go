// Package stubgen generates Go source stubs for described types so Go
// programs can reference generated classes symbolically.
package stubgen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/Shredder121/byte-buddy/describe"
)

const loaderPath = "github.com/Shredder121/byte-buddy/loader"

// Generator emits one Go source file per call, holding name constants
// and typed accessor stubs for a set of described types.
type Generator struct {
	// Package is the package name of the generated file.
	Package string
}

// Generate renders stubs for the given types.
func (g *Generator) Generate(types ...describe.TypeDescription) (string, error) {
	pkg := g.Package
	if pkg == "" {
		pkg = "stubs"
	}
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by bb stub. DO NOT EDIT.")

	for _, td := range types {
		if err := g.generateType(f, td); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("stubgen: rendering: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) generateType(f *jen.File, td describe.TypeDescription) error {
	ident := exportName(td.SimpleName())
	if ident == "" {
		return fmt.Errorf("stubgen: unusable type name %q", td.Name())
	}

	f.Commentf("%sClass is the binary name of %s.", ident, td.Name())
	f.Const().Id(ident + "Class").Op("=").Lit(td.Name())

	for _, m := range stubMethods(td) {
		f.Const().Id(ident + exportName(m.Name()) + "Method").Op("=").Lit(m.Name())
	}
	f.Line()

	f.Commentf("%s is a typed handle on the loaded %s class.", ident, td.Name())
	f.Type().Id(ident).Struct(
		jen.Id("Class").Op("*").Qual(loaderPath, "Class"),
	)
	f.Line()

	f.Commentf("Load%s resolves %s through the given loader.", ident, td.Name())
	f.Func().Id("Load"+ident).Params(jen.Id("cl").Op("*").Qual(loaderPath, "ClassLoader")).Parens(jen.List(jen.Id(ident), jen.Error())).Block(
		jen.List(jen.Id("class"), jen.Err()).Op(":=").Id("cl").Dot("Load").Call(jen.Id(ident+"Class")),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Id(ident).Values(), jen.Err()),
		),
		jen.Return(jen.Id(ident).Values(jen.Dict{
			jen.Id("Class"): jen.Id("class"),
		}), jen.Nil()),
	)
	f.Line()

	if !td.IsInterface() && !td.IsAbstract() {
		f.Commentf("New creates an instance of %s.", td.Name())
		f.Func().Params(jen.Id("h").Id(ident)).Id("New").Params().Parens(jen.List(jen.Op("*").Qual(loaderPath, "Instance"), jen.Error())).Block(
			jen.Return(jen.Id("h").Dot("Class").Dot("New").Call()),
		)
		f.Line()
	}
	return nil
}

// stubMethods returns the declared methods worth a name constant, in
// declaration order.
func stubMethods(td describe.TypeDescription) describe.MethodList {
	return td.DeclaredMethods().Filter(func(m describe.MethodDescription) bool {
		return !m.IsConstructor() && !m.IsStaticInitializer() && !m.IsPrivate()
	})
}
