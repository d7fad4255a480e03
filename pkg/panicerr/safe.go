// Package panicerr runs goroutine bodies so that a panic surfaces as an
// error instead of taking down the process.
package panicerr

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/smartplanner/pkg/cerr"
)

// Run calls fn and converts a panic into an internal *cerr.Error carrying
// the panic value and the stack of the panicking goroutine.
func Run(ctx context.Context, fn func(context.Context) error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn(ctx)
	})
	if r := catcher.Recovered(); r != nil {
		e := cerr.NewError(cerr.Internal, "server error", fmt.Errorf("panic: %v", r.Value))
		e.Stack = string(r.Stack)
		return e
	}
	return err
}

// Func adapts fn for conc pools and wait groups that take func() error.
func Func(ctx context.Context, fn func(context.Context) error) func() error {
	return func() error {
		return Run(ctx, fn)
	}
}
