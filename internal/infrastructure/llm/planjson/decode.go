package planjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"qutebrowser-agent/internal/domain/entity"
)

const fence = "```"

// StripFences removes a surrounding markdown code block, with or without a
// language tag. Text that does not start with a fence is returned as is.
func StripFences(text string) string {
	if !strings.HasPrefix(strings.TrimSpace(text), fence) {
		return text
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	body := make([]string, 0, len(lines))
	for _, line := range lines[1:] {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}

type wirePlan struct {
	Action       *string       `json:"action"`
	Thought      *string       `json:"thought"`
	WittyMessage *string       `json:"wittyMessage"`
	Steps        []wireCommand `json:"steps"`
}

type wireCommand struct {
	Command *string `json:"command"`
}

// Decode parses the model text into a plan and validates it.
func Decode(raw string) (*entity.BrowserPlan, error) {
	cleaned := StripFences(raw)

	var wp wirePlan
	if err := json.Unmarshal([]byte(cleaned), &wp); err != nil {
		return nil, &entity.MalformedPlanError{Raw: raw, Cleaned: cleaned, Err: err}
	}

	plan, err := wp.toEntity()
	if err != nil {
		return nil, &entity.MalformedPlanError{Raw: raw, Cleaned: cleaned, Err: err}
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

func (wp *wirePlan) toEntity() (*entity.BrowserPlan, error) {
	switch {
	case wp.Action == nil:
		return nil, fmt.Errorf("missing field `action`")
	case wp.Thought == nil:
		return nil, fmt.Errorf("missing field `thought`")
	case wp.WittyMessage == nil:
		return nil, fmt.Errorf("missing field `wittyMessage`")
	}

	plan := &entity.BrowserPlan{
		Action:       entity.PlanAction(*wp.Action),
		Thought:      *wp.Thought,
		WittyMessage: *wp.WittyMessage,
	}

	for i, step := range wp.Steps {
		if step.Command == nil {
			return nil, fmt.Errorf("missing field `command` in steps[%d]", i)
		}
		plan.Steps = append(plan.Steps, entity.BrowserCommand{Command: *step.Command})
	}

	return plan, nil
}

// Status classifies a planner error for metrics labels.
func Status(err error) string {
	var (
		transport *entity.TransportError
		service   *entity.ServiceError
		empty     *entity.EmptyResponseError
		malformed *entity.MalformedPlanError
		invalid   *entity.InvalidPlanError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &transport):
		return "transport_error"
	case errors.As(err, &service):
		return "service_error"
	case errors.As(err, &empty):
		return "empty_response"
	case errors.As(err, &malformed):
		return "malformed_plan"
	case errors.As(err, &invalid):
		return "invalid_plan"
	default:
		return "error"
	}
}
