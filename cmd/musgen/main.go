package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/tradmap/core"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// If we're in the core subpackage, cd up to project root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/tradmap/core"),
	)
	if err != nil {
		panic(err)
	}

	for _, t := range []reflect.Type{
		reflect.TypeFor[core.ID](),
		reflect.TypeFor[core.System](),
		reflect.TypeFor[core.Status](),
		reflect.TypeFor[core.Criterion](),
	} {
		if err := g.AddDefinedType(t); err != nil {
			panic(err)
		}
	}

	// Unix micro timestamps
	ts := typeops.WithTimeUnit(typeops.Micro)

	structs := []struct {
		t      reflect.Type
		fields []structops.SetOption
	}{
		{reflect.TypeFor[core.Concept](), fields(6)},
		{reflect.TypeFor[core.ClassificationEntry](), append(fields(7),
			structops.WithField(ts),
			structops.WithField(ts))},
		{reflect.TypeFor[core.CriterionScore](), fields(4)},
		{reflect.TypeFor[core.Alternative](), fields(3)},
		{reflect.TypeFor[core.MappingMetadata](), append([]structops.SetOption{
			structops.WithField(ts),
			structops.WithField(ts)},
			fields(3)...)},
		{reflect.TypeFor[core.MappingResult](), fields(9)},
		{reflect.TypeFor[core.KnowledgeEntry](), append(fields(2),
			structops.WithField(ts),
			structops.WithField(ts))},
	}
	for _, s := range structs {
		if err := g.AddStruct(s.t, s.fields...); err != nil {
			panic(err)
		}
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	err = os.WriteFile("./core/records_mus.gen.go", bs, 0644)
	if err != nil {
		panic(err)
	}
}

// fields returns n default field options.
func fields(n int) []structops.SetOption {
	opts := make([]structops.SetOption, n)
	for i := range opts {
		opts[i] = structops.WithField()
	}
	return opts
}
