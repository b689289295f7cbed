package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsoleUserInteractionWithIO(os.Stdin, color.Output)
}

func NewConsoleUserInteractionWithIO(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// AskQuestion returns io.EOF once the input is exhausted.
func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(u.out, "\n%s\n> ", question)

	answer, err := u.reader.ReadString('\n')
	if err == io.EOF && strings.TrimSpace(answer) != "" {
		err = nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (u *ConsoleUserInteraction) ShowIteration(ctx context.Context, iteration, maxIterations int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Step %d/%d ━━━\n", iteration, maxIterations)
}

func (u *ConsoleUserInteraction) ShowPlan(ctx context.Context, plan *entity.BrowserPlan) {
	if plan == nil {
		return
	}

	blue := color.New(color.FgBlue)
	blue.Fprint(u.out, "\n💭 Thought: ")

	dim := color.New(color.Faint)
	dim.Fprintln(u.out, truncate(plan.Thought, 500))

	if plan.WittyMessage != "" {
		magenta := color.New(color.FgMagenta, color.Italic)
		magenta.Fprintf(u.out, "   %s\n", truncate(plan.WittyMessage, 200))
	}

	if plan.IsFinish() {
		return
	}

	dim.Fprintf(u.out, "   %d command(s) planned\n", len(plan.Steps))
}

func (u *ConsoleUserInteraction) ShowCommandStart(ctx context.Context, command string) {
	icon := commandIcon(command)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "%s %s\n", icon, truncate(command, 120))
}

func (u *ConsoleUserInteraction) ShowCommandResult(ctx context.Context, command string, err error) {
	if err != nil {
		red := color.New(color.FgRed)
		red.Fprint(u.out, "❌ Error: ")

		dim := color.New(color.Faint)
		dim.Fprintln(u.out, truncate(err.Error(), 300))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintln(u.out, "   ✓ dispatched")
}

func (u *ConsoleUserInteraction) ShowFinal(ctx context.Context, result *entity.RunResult) {
	if result == nil {
		return
	}

	if result.Outcome == entity.RunExhausted {
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintf(u.out, "\n⚠ %s\n", result.FinalAnswer)
		return
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(u.out, "\n✅ Done in %d step(s)\n", result.Iterations)
	fmt.Fprintln(u.out, result.FinalAnswer)
}

func commandIcon(command string) string {
	body := entity.BrowserCommand{Command: command}.Body()
	name, _, _ := strings.Cut(body, " ")

	icons := map[string]string{
		"open":        "🌐",
		"back":        "⬅️",
		"forward":     "➡️",
		"reload":      "🔄",
		"hint":        "🎯",
		"insert-text": "✏️",
		"fake-key":    "⌨️",
		"scroll":      "📜",
		"scroll-page": "📜",
		"search":      "🔎",
		"tab-close":   "✖️",
		"tab-next":    "⏭️",
		"tab-prev":    "⏮️",
	}

	if icon, ok := icons[name]; ok {
		return icon
	}
	return "🔧"
}

// truncate keeps at most maxLen runes of s.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
