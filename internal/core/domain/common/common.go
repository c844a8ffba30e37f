package common

import (
	"fmt"
)

type Optional[T any] struct {
	Value     T
	IsPresent bool
}

func (p Optional[T]) String() string {
	if !p.IsPresent {
		return "[-]"
	}
	return fmt.Sprintf("[%v]", p.Value)
}

func NewOptional[T any](value T, isPresent bool) Optional[T] {
	return Optional[T]{Value: value, IsPresent: isPresent}
}

func Some[T any](value T) Optional[T] {
	return NewOptional(value, true)
}

func None[T any]() Optional[T] {
	var value T
	return NewOptional(value, false)
}

// OptionalFromPointer treats nil as an absent value. Used for JSON payloads
// where a missing key and an explicit value must be told apart.
func OptionalFromPointer[T any](value *T) Optional[T] {
	if value == nil {
		return None[T]()
	}
	return Some(*value)
}
