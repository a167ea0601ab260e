// Package unwind implements scoped acquisition for multi-step resource
// construction.
//
// Every acquired resource pushes its release function. If construction fails
// the stack is run in reverse order of acquisition; once construction
// succeeds the stack is released to the owner, which runs it on teardown.
package unwind

import "errors"

// Stack of release functions.
type Stack struct {
	funcs []func() error
}

// Push a release function.
func (s *Stack) Push(release func() error) {
	s.funcs = append(s.funcs, release)
}

// Len is the number of pending release functions.
func (s *Stack) Len() int {
	return len(s.funcs)
}

// Run all release functions in reverse order. All functions run, errors are
// joined. The stack is empty afterwards, so running it twice is harmless.
func (s *Stack) Run() error {
	var errs []error
	for i := len(s.funcs) - 1; i >= 0; i-- {
		if err := s.funcs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.funcs = nil
	return errors.Join(errs...)
}

// Release hands the pending functions to the caller as a new Stack and
// empties s, so a deferred Run on s becomes a no-op.
func (s *Stack) Release() *Stack {
	out := &Stack{funcs: s.funcs}
	s.funcs = nil
	return out
}

// OnError runs the stack when *err is non-nil. Use it deferred:
//
//	var stack unwind.Stack
//	defer stack.OnError(&err)
func (s *Stack) OnError(err *error) {
	if *err == nil {
		return
	}
	_ = s.Run()
}
