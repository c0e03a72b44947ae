package agent

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/matcher"
)

// RawMatcher decides whether an agent entry applies to a class,
// given everything known at transformation time.
type RawMatcher interface {
	Matches(td describe.TypeDescription, cl *loader.ClassLoader, redefined *loader.Class) bool
}

// RawMatcherFn adapts a function to a RawMatcher.
type RawMatcherFn func(td describe.TypeDescription, cl *loader.ClassLoader, redefined *loader.Class) bool

func (f RawMatcherFn) Matches(td describe.TypeDescription, cl *loader.ClassLoader, redefined *loader.Class) bool {
	return f(td, cl, redefined)
}

// ForType lifts a type matcher into a raw matcher that ignores the
// loader context.
func ForType(m matcher.Matcher[describe.TypeDescription]) RawMatcher {
	return RawMatcherFn(func(td describe.TypeDescription, _ *loader.ClassLoader, _ *loader.Class) bool {
		return m.Matches(td)
	})
}

// Named matches classes by exact binary name.
func Named(name string) RawMatcher {
	return ForType(matcher.Named[describe.TypeDescription](name))
}

// NameStartsWith matches classes whose binary name has the prefix.
func NameStartsWith(prefix string) RawMatcher {
	return ForType(matcher.NameStartsWith[describe.TypeDescription](prefix))
}

// NameGlob matches classes by a shell-style name pattern.
func NameGlob(pattern string) RawMatcher {
	return ForType(matcher.NameGlob[describe.TypeDescription](pattern))
}

// InLoader matches classes defined by the named loader.
func InLoader(name string) RawMatcher {
	return RawMatcherFn(func(_ describe.TypeDescription, cl *loader.ClassLoader, _ *loader.Class) bool {
		return cl != nil && cl.Name() == name
	})
}
