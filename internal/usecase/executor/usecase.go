package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qutebrowser-agent/internal/application/port/input"
	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/application/service"
	"qutebrowser-agent/internal/domain/entity"
)

var _ input.InstructionRunner = (*UseCase)(nil)

const (
	DefaultMaxSteps = 10

	executedPlanPrefix = "Executed plan: "
)

// DelayTable maps a command to the pause that follows it. Commands whose
// body (leading colons removed) starts with one of NavigationPrefixes wait
// Navigation, everything else waits Default.
type DelayTable struct {
	Navigation         time.Duration
	Default            time.Duration
	NavigationPrefixes []string
}

func DefaultDelayTable() DelayTable {
	return DelayTable{
		Navigation:         3000 * time.Millisecond,
		Default:            1000 * time.Millisecond,
		NavigationPrefixes: []string{"open", "back", "reload"},
	}
}

func (d DelayTable) For(cmd entity.BrowserCommand) time.Duration {
	body := cmd.Body()
	for _, prefix := range d.NavigationPrefixes {
		if strings.HasPrefix(body, prefix) {
			return d.Navigation
		}
	}
	return d.Default
}

type Config struct {
	MaxSteps int
	Delays   DelayTable
	// Sleep waits between commands; it must return early with ctx.Err()
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultConfig() Config {
	return Config{
		MaxSteps: DefaultMaxSteps,
		Delays:   DefaultDelayTable(),
		Sleep:    SleepContext,
	}
}

type UseCase struct {
	planner  output.PlannerPort
	browser  output.BrowserPort
	screen   output.ScreenPort
	ui       output.UserInteractionPort
	logger   output.LoggerPort
	metrics  output.MetricsPort
	maxSteps int
	delays   DelayTable
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(
	planner output.PlannerPort,
	browser output.BrowserPort,
	screen output.ScreenPort,
	ui output.UserInteractionPort,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	cfg Config,
) *UseCase {
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}

	return &UseCase{
		planner:  planner,
		browser:  browser,
		screen:   screen,
		ui:       ui,
		logger:   logger,
		metrics:  metrics,
		maxSteps: cfg.MaxSteps,
		delays:   cfg.Delays,
		sleep:    cfg.Sleep,
	}
}

// Run observes the screen, asks the planner for the next plan and executes
// it until the planner finishes or the step budget is spent. Every
// screenshot and every executed plan is appended to session.
func (uc *UseCase) Run(ctx context.Context, session *entity.Session, instruction string) (*entity.RunResult, error) {
	log := uc.logger.WithField("session", session.ID)
	start := time.Now()

	result, err := uc.run(ctx, log, session, instruction)

	if uc.metrics != nil {
		uc.metrics.ObserveRun(string(result.Outcome), result.Iterations)
	}

	if err != nil {
		log.Error("Instruction failed", "iterations", result.Iterations, "error", err)
		return nil, err
	}

	log.Info("Instruction completed",
		"outcome", result.Outcome,
		"iterations", result.Iterations,
		"duration", time.Since(start),
	)
	uc.ui.ShowFinal(ctx, result)

	return result, nil
}

func (uc *UseCase) run(ctx context.Context, log output.LoggerPort, session *entity.Session, instruction string) (*entity.RunResult, error) {
	result := &entity.RunResult{Outcome: entity.RunFailed}

	if err := uc.observe(ctx, session); err != nil {
		return result, fmt.Errorf("initial screenshot failed: %w", err)
	}

	for iteration := 1; iteration <= uc.maxSteps; iteration++ {
		result.Iterations = iteration
		log.Debug("Starting iteration", "iteration", iteration)
		uc.ui.ShowIteration(ctx, iteration, uc.maxSteps)

		conversation := service.BuildConversation(session, instruction)

		plan, err := uc.planner.GetPlan(ctx, conversation)
		if err != nil {
			return result, fmt.Errorf("plan request failed: %w", err)
		}

		log.Info("AI plan", "action", plan.Action, "thought", plan.Thought, "steps", len(plan.Steps))
		log.Info("Witty message", "message", plan.WittyMessage)
		uc.ui.ShowPlan(ctx, plan)

		if plan.IsFinish() {
			result.FinalAnswer = plan.Thought
			result.Outcome = entity.RunFinished
			return result, nil
		}

		for _, step := range plan.Steps {
			if err := uc.executeStep(ctx, log, step); err != nil {
				return result, err
			}
		}

		session.AddAssistantMessage(executedPlanPrefix + plan.Thought)

		if err := uc.observe(ctx, session); err != nil {
			return result, fmt.Errorf("screenshot after iteration %d failed: %w", iteration, err)
		}
	}

	log.Warn("Step budget exhausted", "maxSteps", uc.maxSteps)
	result.FinalAnswer = entity.ExhaustedMessage
	result.Outcome = entity.RunExhausted
	return result, nil
}

func (uc *UseCase) executeStep(ctx context.Context, log output.LoggerPort, step entity.BrowserCommand) error {
	log.Info("Executing command", "command", step.Command)
	uc.ui.ShowCommandStart(ctx, step.Command)

	err := uc.browser.Execute(ctx, step.Command)
	uc.ui.ShowCommandResult(ctx, step.Command, err)
	if err != nil {
		return fmt.Errorf("command %q failed: %w", step.Command, err)
	}

	delay := uc.delays.For(step)
	log.Debug("Waiting after command", "command", step.Command, "delay", delay)
	if err := uc.sleep(ctx, delay); err != nil {
		return fmt.Errorf("interrupted after %q: %w", step.Command, err)
	}
	return nil
}

func (uc *UseCase) observe(ctx context.Context, session *entity.Session) error {
	screenshot, err := uc.screen.Capture(ctx)
	if err != nil {
		return err
	}
	session.AddImage(screenshot)
	return nil
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
