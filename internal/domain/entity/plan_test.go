package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserCommand_PrefixAndBody(t *testing.T) {
	tests := []struct {
		command   string
		hasPrefix bool
		body      string
	}{
		{":open https://example.com", true, "open https://example.com"},
		{"::back", true, "back"},
		{"open https://example.com", false, "open https://example.com"},
		{"", false, ""},
	}

	for _, tt := range tests {
		cmd := BrowserCommand{Command: tt.command}
		assert.Equal(t, tt.hasPrefix, cmd.HasPrefix(), tt.command)
		assert.Equal(t, tt.body, cmd.Body(), tt.command)
	}
}

func TestBrowserPlan_Validate(t *testing.T) {
	finish := &BrowserPlan{Action: ActionFinish, Thought: "done"}
	assert.NoError(t, finish.Validate())
	assert.True(t, finish.IsFinish())

	execute := &BrowserPlan{Action: ActionExecute, Steps: []BrowserCommand{{Command: ":hint"}}}
	assert.NoError(t, execute.Validate())
	assert.False(t, execute.IsFinish())

	var invalid *InvalidPlanError

	err := (&BrowserPlan{Action: ActionExecute}).Validate()
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "steps")

	err = (&BrowserPlan{Action: "pause"}).Validate()
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "pause")
}

func TestSession_LatestImage(t *testing.T) {
	s := NewSession("id")

	_, ok := s.LatestImage()
	assert.False(t, ok)

	s.AddImage("a")
	s.AddImage("b")
	img, ok := s.LatestImage()
	assert.True(t, ok)
	assert.Equal(t, "b", img)
}

func TestSession_MessagesAreTimestamped(t *testing.T) {
	s := NewSession("id")
	s.AddUserMessage("hi")
	s.AddAssistantMessage("hello")

	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleUser, s.Messages[0].Role)
	assert.Equal(t, RoleAssistant, s.Messages[1].Role)
	assert.False(t, s.Messages[0].Timestamp.IsZero())
	assert.Equal(t, "UTC", s.Messages[0].Timestamp.Location().String())
}

func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "command must start with ':' but got: open x", (&ValidationError{Command: "open x"}).Error())

	malformed := &MalformedPlanError{Raw: "raw text", Cleaned: "cleaned text", Err: assert.AnError}
	assert.Contains(t, malformed.Error(), "Raw response: raw text")
	assert.Contains(t, malformed.Error(), "Cleaned JSON: cleaned text")
	assert.ErrorIs(t, malformed, assert.AnError)

	assert.Contains(t, (&ServiceError{StatusCode: 429, Body: `{"error":"quota"}`}).Error(), `{"error":"quota"}`)
}
