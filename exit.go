// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
)

type exitOperation struct{}

func (exitOperation) run(context.Context, State) (*Result, error) {
	return exited(nil), nil
}

// Exit is the exit signal.
//
// Used as an operation, it unconditionally stops the run. Returned from a
// [Func], it is the same as returning ExitWith(nil):
//
//	func(_ context.Context, in process.State) (any, error) {
//	    if in["state"] == in["newState"] {
//	        return process.Exit, nil
//	    }
//	    return nil, nil
//	}
//
// Once produced, nothing else runs in the current Process or in any Process
// enclosing it.
var Exit Operation = exitOperation{}

// ExitWith returns an exit signal carrying out as its update.
//
// out is validated like any operation output: nil, a [State],
// map[string]any or a [*Result]; anything else is a [KindExecution] error.
// Because of the two return values, it can be returned directly from a
// [Func]:
//
//	return process.ExitWith(process.State{"reason": "unchanged"})
func ExitWith(out any) (*Result, error) {
	res, err := outcome(out)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return exited(nil), nil
	}
	return exited(res.State), nil
}
