// Package matcher implements composable predicates over descriptions.
// Matchers are pure and side effect free; combinators build new
// matchers without mutating their operands.
package matcher

// Matcher is a predicate over a matched element.
type Matcher[T any] interface {
	Matches(target T) bool
}

// Fn adapts a plain function to a Matcher.
type Fn[T any] func(T) bool

// Matches calls the wrapped function.
func (f Fn[T]) Matches(target T) bool { return f(target) }

// Any matches every element.
func Any[T any]() Matcher[T] {
	return Fn[T](func(T) bool { return true })
}

// None matches no element.
func None[T any]() Matcher[T] {
	return Fn[T](func(T) bool { return false })
}

// And matches when every operand matches. With no operands it behaves
// like Any.
func And[T any](matchers ...Matcher[T]) Matcher[T] {
	return Fn[T](func(target T) bool {
		for _, m := range matchers {
			if !m.Matches(target) {
				return false
			}
		}
		return true
	})
}

// Or matches when at least one operand matches. With no operands it
// behaves like None.
func Or[T any](matchers ...Matcher[T]) Matcher[T] {
	return Fn[T](func(target T) bool {
		for _, m := range matchers {
			if m.Matches(target) {
				return true
			}
		}
		return false
	})
}

// Not inverts a matcher.
func Not[T any](m Matcher[T]) Matcher[T] {
	return Fn[T](func(target T) bool { return !m.Matches(target) })
}
