// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"strings"
	"sync"

	"qutebrowser-agent/internal/infrastructure/process"
)

var _ process.Runner = (*FakeRunner)(nil)

// Call records one Run invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type response struct {
	result process.Result
	err    error
}

// FakeRunner answers Run with responses registered per program name.
// Unregistered programs succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]response
	hooks     map[string]func(args []string)
	calls     []Call
	starts    []process.Spec
	startErr  error
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]response),
		hooks:     make(map[string]func(args []string)),
	}
}

func (f *FakeRunner) On(name string, result process.Result, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = response{result: result, err: err}
	return f
}

// OnRun registers a side effect executed before name answers.
func (f *FakeRunner) OnRun(name string, hook func(args []string)) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[name] = hook
	return f
}

func (f *FakeRunner) FailStart(err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	resp := f.responses[name]
	hook := f.hooks[name]
	f.mu.Unlock()

	if hook != nil {
		hook(args)
	}
	return resp.result, resp.err
}

func (f *FakeRunner) Start(spec process.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, spec)
	return f.startErr
}

func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeRunner) Starts() []process.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Spec(nil), f.starts...)
}
