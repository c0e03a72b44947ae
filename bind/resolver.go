package bind

import (
	"github.com/Shredder121/byte-buddy/describe"
)

// Resolution is the outcome of comparing two valid bindings.
type Resolution int

const (
	// ResolutionUnknown means the resolver cannot order the pair.
	ResolutionUnknown Resolution = iota

	// ResolutionLeft prefers the left binding.
	ResolutionLeft

	// ResolutionRight prefers the right binding.
	ResolutionRight

	// ResolutionAmbiguous means the pair is equally appropriate and no
	// later resolver may override that.
	ResolutionAmbiguous
)

func (r Resolution) String() string {
	switch r {
	case ResolutionLeft:
		return "left"
	case ResolutionRight:
		return "right"
	case ResolutionAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// AmbiguityResolver orders two valid bindings of the same source
// method.
type AmbiguityResolver interface {
	Resolve(source describe.MethodDescription, left, right Binding) Resolution
}

// ResolverFn adapts a function to an AmbiguityResolver.
type ResolverFn func(source describe.MethodDescription, left, right Binding) Resolution

func (f ResolverFn) Resolve(source describe.MethodDescription, left, right Binding) Resolution {
	return f(source, left, right)
}

// Chain consults resolvers in order and returns the first decisive
// resolution. An ambiguous answer is decisive; later resolvers must
// not override it.
func Chain(resolvers ...AmbiguityResolver) AmbiguityResolver {
	return ResolverFn(func(source describe.MethodDescription, left, right Binding) Resolution {
		for _, r := range resolvers {
			if res := r.Resolve(source, left, right); res != ResolutionUnknown {
				return res
			}
		}
		return ResolutionUnknown
	})
}

// DefaultResolver is the standard resolver chain. Explicit priority
// dominates; among equal priorities the more specific argument types
// win, then a target named like the source, then the larger parameter
// list.
func DefaultResolver() AmbiguityResolver {
	return Chain(
		PriorityResolver(),
		SpecificityResolver(),
		NameEqualityResolver(),
		ParameterLengthResolver(),
	)
}

// PriorityResolver orders bindings by their explicit priority; higher
// wins, equal priorities stay unknown.
func PriorityResolver() AmbiguityResolver {
	return ResolverFn(func(_ describe.MethodDescription, left, right Binding) Resolution {
		l, lok := left.(*methodBinding)
		r, rok := right.(*methodBinding)
		if !lok || !rok {
			return ResolutionUnknown
		}
		switch {
		case l.priority > r.priority:
			return ResolutionLeft
		case l.priority < r.priority:
			return ResolutionRight
		default:
			return ResolutionUnknown
		}
	})
}

// SpecificityResolver compares the target parameter types bound to the
// same source values. A target accepting the more specific type is
// preferred; conflicting specificity across parameters is ambiguous.
func SpecificityResolver() AmbiguityResolver {
	return ResolverFn(func(_ describe.MethodDescription, left, right Binding) Resolution {
		l, lok := left.(*methodBinding)
		r, rok := right.(*methodBinding)
		if !lok || !rok {
			return ResolutionUnknown
		}

		leftWins, rightWins := 0, 0
		for token, li := range l.tokens {
			ri, shared := r.tokens[token]
			if !shared {
				continue
			}
			leftType := l.target.Parameters()[li].TypeName()
			rightType := r.target.Parameters()[ri].TypeName()
			if leftType == rightType {
				continue
			}
			resolver := l.target.Resolver()
			leftNarrower := assignable(rightType, leftType, resolver)
			rightNarrower := assignable(leftType, rightType, resolver)
			switch {
			case leftNarrower && !rightNarrower:
				leftWins++
			case rightNarrower && !leftNarrower:
				rightWins++
			}
		}
		switch {
		case leftWins > 0 && rightWins == 0:
			return ResolutionLeft
		case rightWins > 0 && leftWins == 0:
			return ResolutionRight
		case leftWins > 0 && rightWins > 0:
			return ResolutionAmbiguous
		default:
			return ResolutionUnknown
		}
	})
}

// NameEqualityResolver prefers a target named exactly like the source
// method.
func NameEqualityResolver() AmbiguityResolver {
	return ResolverFn(func(source describe.MethodDescription, left, right Binding) Resolution {
		leftMatches := left.Target().Name() == source.Name()
		rightMatches := right.Target().Name() == source.Name()
		switch {
		case leftMatches && !rightMatches:
			return ResolutionLeft
		case rightMatches && !leftMatches:
			return ResolutionRight
		default:
			return ResolutionUnknown
		}
	})
}

// ParameterLengthResolver prefers the target consuming more
// parameters.
func ParameterLengthResolver() AmbiguityResolver {
	return ResolverFn(func(_ describe.MethodDescription, left, right Binding) Resolution {
		l := left.Target().Parameters().Size()
		r := right.Target().Parameters().Size()
		switch {
		case l > r:
			return ResolutionLeft
		case l < r:
			return ResolutionRight
		default:
			return ResolutionUnknown
		}
	})
}
