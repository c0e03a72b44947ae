package bind

import (
	"errors"
	"fmt"

	"github.com/Shredder121/byte-buddy/describe"
)

var (
	// ErrNoEligibleTarget is returned when every candidate is excluded
	// from binding before type checks even run.
	ErrNoEligibleTarget = errors.New("bind: no eligible delegation target")

	// ErrNoBindingPossible is returned when no eligible candidate can be
	// bound to the source method.
	ErrNoBindingPossible = errors.New("bind: no candidate can be bound")

	// ErrAmbiguousBinding is returned when ambiguity resolution cannot
	// single out one best candidate.
	ErrAmbiguousBinding = errors.New("bind: ambiguous delegation")
)

// Processor selects the best binding of a source method among a set of
// candidate targets. The selection is deterministic for a given
// candidate order.
type Processor struct {
	resolver AmbiguityResolver
}

// NewProcessor creates a processor with the given resolver chain; with
// no resolvers it uses the default chain.
func NewProcessor(resolvers ...AmbiguityResolver) *Processor {
	if len(resolvers) == 0 {
		return &Processor{resolver: DefaultResolver()}
	}
	return &Processor{resolver: Chain(resolvers...)}
}

// Eligible reports whether a candidate may take part in binding at
// all. Constructors, initializers, abstract methods and methods opting
// out via the ignore annotation are excluded.
func Eligible(candidate describe.MethodDescription) bool {
	if candidate.IsConstructor() || candidate.IsStaticInitializer() || candidate.IsAbstract() {
		return false
	}
	return !candidate.DeclaredAnnotations().IsAnnotationPresent(IgnoreForBindingAnnotation)
}

// Process binds the source method against every eligible candidate and
// returns the uniquely best valid binding.
func (p *Processor) Process(source describe.MethodDescription, candidates describe.MethodList) (Binding, error) {
	eligible := candidates.Filter(Eligible)
	if len(eligible) == 0 {
		return Illegal, fmt.Errorf("%w for %s.%s",
			ErrNoEligibleTarget, source.DeclaringTypeName(), source.Name())
	}

	var valid []Binding
	for _, candidate := range eligible {
		if b := Bind(source, candidate); b.IsValid() {
			valid = append(valid, b)
		}
	}
	switch len(valid) {
	case 0:
		return Illegal, fmt.Errorf("%w for %s.%s",
			ErrNoBindingPossible, source.DeclaringTypeName(), source.Name())
	case 1:
		return valid[0], nil
	}

	best, err := p.tournament(source, valid)
	if err != nil {
		return Illegal, err
	}
	return best, nil
}

// tournament picks a provisional winner by pairwise resolution and
// then verifies it dominates every other candidate. The verification
// makes the outcome independent of which pair happened to be compared
// first.
func (p *Processor) tournament(source describe.MethodDescription, bindings []Binding) (Binding, error) {
	winner := bindings[0]
	for _, challenger := range bindings[1:] {
		if p.resolver.Resolve(source, winner, challenger) == ResolutionRight {
			winner = challenger
		}
	}
	for _, other := range bindings {
		if other == winner {
			continue
		}
		if p.resolver.Resolve(source, winner, other) != ResolutionLeft {
			return Illegal, fmt.Errorf("%w of %s.%s between %s and %s",
				ErrAmbiguousBinding, source.DeclaringTypeName(), source.Name(),
				winner.Target().Name(), other.Target().Name())
		}
	}
	return winner, nil
}
