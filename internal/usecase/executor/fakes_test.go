package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qutebrowser-agent/internal/domain/entity"
)

type fakePlanner struct {
	mu    sync.Mutex
	plans []*entity.BrowserPlan
	err   error
	// fallback is returned once plans run out.
	fallback *entity.BrowserPlan
	calls    [][]entity.Turn
}

func (p *fakePlanner) Name() string { return "fake" }

func (p *fakePlanner) GetPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, conversation)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.plans) == 0 {
		return p.fallback, nil
	}
	plan := p.plans[0]
	p.plans = p.plans[1:]
	return plan, nil
}

type fakeBrowser struct {
	commands []string
	failOn   map[string]error
}

func (b *fakeBrowser) Execute(ctx context.Context, command string) error {
	b.commands = append(b.commands, command)
	return b.failOn[command]
}

func (b *fakeBrowser) IsRunning(ctx context.Context) (bool, error) { return true, nil }

func (b *fakeBrowser) Launch(ctx context.Context) error { return nil }

func (b *fakeBrowser) EnsureRunning(ctx context.Context) error { return nil }

func (b *fakeBrowser) FocusWindow(ctx context.Context) error { return nil }

type fakeScreen struct {
	count int
	err   error
	// failAfter makes every capture past the first failAfter ones fail.
	failAfter int
}

func (s *fakeScreen) Capture(ctx context.Context) (string, error) {
	if s.err != nil && s.count >= s.failAfter {
		return "", s.err
	}
	s.count++
	return fmt.Sprintf("img-%d", s.count), nil
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type recordingMetrics struct {
	runs []string
	its  []int
}

func (m *recordingMetrics) ObservePlanRequest(provider, status string, duration time.Duration) {}

func (m *recordingMetrics) ObserveCommand(outcome string) {}

func (m *recordingMetrics) ObserveRun(outcome string, iterations int) {
	m.runs = append(m.runs, outcome)
	m.its = append(m.its, iterations)
}

func (m *recordingMetrics) SetActiveSessions(n int) {}

func executePlan(thought string, commands ...string) *entity.BrowserPlan {
	steps := make([]entity.BrowserCommand, 0, len(commands))
	for _, c := range commands {
		steps = append(steps, entity.BrowserCommand{Command: c})
	}
	return &entity.BrowserPlan{
		Action:       entity.ActionExecute,
		Thought:      thought,
		WittyMessage: "on it",
		Steps:        steps,
	}
}

func finishPlan(answer string) *entity.BrowserPlan {
	return &entity.BrowserPlan{Action: entity.ActionFinish, Thought: answer, WittyMessage: "done"}
}
