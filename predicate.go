// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"reflect"
)

// A Predicate is a failable boolean condition on the current state.
type Predicate = func(context.Context, State) (bool, error)

// When runs the given operation only if the predicate returns true.
//
// If the predicate returns false, the operation is skipped and produces no
// update. If the predicate returns an error, that error is propagated.
func When(predicate Predicate, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		ok, err := predicate(ctx, in)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return op.run(ctx, in)
	})
}

// Unless runs the given operation only if the predicate returns false.
//
// If the predicate returns true, the operation is skipped and produces no
// update. If the predicate returns an error, that error is propagated.
func Unless(predicate Predicate, op Operation) Operation {
	return When(Not(predicate), op)
}

// Not negates a predicate.
//
// Example:
//
//	process.Unless(process.Not(process.Has("item")), publishItem)
func Not(predicate Predicate) Predicate {
	return func(ctx context.Context, in State) (bool, error) {
		ok, err := predicate(ctx, in)
		return !ok, err
	}
}

// And combines multiple predicates with logical AND.
//
// Evaluation short-circuits on the first false or error.
func And(predicates ...Predicate) Predicate {
	return func(ctx context.Context, in State) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, in)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// Or combines multiple predicates with logical OR.
//
// Evaluation short-circuits on the first true or error.
func Or(predicates ...Predicate) Predicate {
	return func(ctx context.Context, in State) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, in)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Has matches states in which key is present, whatever its value.
func Has(key string) Predicate {
	return func(_ context.Context, in State) (bool, error) {
		_, ok := in[key]
		return ok, nil
	}
}

// Equals matches states in which key holds a value deeply equal to value.
//
// Example:
//
//	process.When(process.Equals("newState", "published"), notifySubscribers)
func Equals(key string, value any) Predicate {
	return func(_ context.Context, in State) (bool, error) {
		v, ok := in[key]
		if !ok {
			return false, nil
		}
		return reflect.DeepEqual(v, value), nil
	}
}
