package entity

import "strings"

type PlanAction string

const (
	ActionExecute PlanAction = "execute"
	ActionFinish  PlanAction = "finish"
)

const CommandPrefix = ":"

type BrowserCommand struct {
	Command string `json:"command"`
}

func (c BrowserCommand) HasPrefix() bool {
	return strings.HasPrefix(c.Command, CommandPrefix)
}

// Body returns the command text with every leading prefix character removed,
// e.g. "open https://x" for ":open https://x".
func (c BrowserCommand) Body() string {
	return strings.TrimLeft(c.Command, CommandPrefix)
}

type BrowserPlan struct {
	Action       PlanAction       `json:"action"`
	Thought      string           `json:"thought"`
	WittyMessage string           `json:"wittyMessage"`
	Steps        []BrowserCommand `json:"steps,omitempty"`
}

func (p *BrowserPlan) IsFinish() bool {
	return p.Action == ActionFinish
}

// Validate enforces the plan contract: a known action, and a non-empty
// step list whenever the action is execute.
func (p *BrowserPlan) Validate() error {
	switch p.Action {
	case ActionFinish:
		return nil
	case ActionExecute:
		if len(p.Steps) == 0 {
			return &InvalidPlanError{Reason: "steps are required and must not be empty when action is 'execute'"}
		}
		return nil
	default:
		return &InvalidPlanError{Reason: "unknown action '" + string(p.Action) + "'"}
	}
}
