package sessions

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"qutebrowser-agent/internal/application/service"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/logger"
	"qutebrowser-agent/internal/infrastructure/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	answer  string
	err     error
	block   chan struct{}
	started chan struct{}
	seen    []string
}

func (r *fakeRunner) Run(ctx context.Context, session *entity.Session, instruction string) (*entity.RunResult, error) {
	r.mu.Lock()
	r.seen = append(r.seen, instruction)
	r.mu.Unlock()

	if r.started != nil {
		close(r.started)
	}
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	session.AddImage("screenshot")
	return &entity.RunResult{FinalAnswer: r.answer, Iterations: 1, Outcome: entity.RunFinished}, nil
}

func newUseCase(runner *fakeRunner) (*UseCase, *service.SessionStoreImpl) {
	store := service.NewSessionStore()
	return New(store, runner, logger.NewNopLogger(), metrics.Nop{}), store
}

func TestCreateSession_UniqueIDs(t *testing.T) {
	uc, store := newUseCase(&fakeRunner{})

	a := uc.CreateSession()
	b := uc.CreateSession()

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, store.Len())
}

func TestSendMessage_RecordsConversation(t *testing.T) {
	runner := &fakeRunner{answer: "The answer is 42."}
	uc, store := newUseCase(runner)
	id := uc.CreateSession()

	response, err := uc.SendMessage(t.Context(), id, "what is the answer?")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", response)

	session, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "what is the answer?", session.Messages[0].Content)
	assert.Equal(t, entity.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "The answer is 42.", session.Messages[1].Content)
	assert.Equal(t, []string{"what is the answer?"}, runner.seen)
}

func TestSendMessage_ErrorKeepsUserMessage(t *testing.T) {
	runner := &fakeRunner{err: &entity.ServiceError{StatusCode: 503, Body: "overloaded"}}
	uc, store := newUseCase(runner)
	id := uc.CreateSession()

	_, err := uc.SendMessage(t.Context(), id, "hello")

	var svcErr *entity.ServiceError
	require.ErrorAs(t, err, &svcErr)

	session, _ := store.Get(id)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
}

func TestSendMessage_UnknownSession(t *testing.T) {
	uc, _ := newUseCase(&fakeRunner{})

	_, err := uc.SendMessage(t.Context(), "missing", "hello")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestUploadImage(t *testing.T) {
	uc, store := newUseCase(&fakeRunner{})
	id := uc.CreateSession()

	require.NoError(t, uc.UploadImage(id, []byte{0x89, 'P', 'N', 'G'}))

	session, _ := store.Get(id)
	require.Len(t, session.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}), session.Images[0])
	assert.Empty(t, session.Messages, "uploading does not trigger the loop")

	assert.ErrorIs(t, uc.UploadImage("missing", []byte("x")), entity.ErrSessionNotFound)
	assert.Error(t, uc.UploadImage(id, nil))
}

func TestStopSession(t *testing.T) {
	uc, store := newUseCase(&fakeRunner{})
	id := uc.CreateSession()

	require.NoError(t, uc.StopSession(id))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, uc.StopSession(id), entity.ErrSessionNotFound)

	_, err := uc.SendMessage(t.Context(), id, "hello")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestStopSession_WaitsForInFlightMessage(t *testing.T) {
	runner := &fakeRunner{answer: "done", block: make(chan struct{}), started: make(chan struct{})}
	uc, _ := newUseCase(runner)
	id := uc.CreateSession()

	sendDone := make(chan error, 1)
	go func() {
		_, err := uc.SendMessage(context.Background(), id, "slow task")
		sendDone <- err
	}()
	<-runner.started

	stopDone := make(chan error, 1)
	go func() { stopDone <- uc.StopSession(id) }()

	select {
	case <-stopDone:
		t.Fatal("StopSession returned while the instruction was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	require.NoError(t, <-sendDone)
	require.NoError(t, <-stopDone)
}

func TestSendMessage_DistinctSessionsRunConcurrently(t *testing.T) {
	block := make(chan struct{})
	runnerA := &fakeRunner{answer: "a", block: block, started: make(chan struct{})}
	store := service.NewSessionStore()
	ucA := New(store, runnerA, logger.NewNopLogger(), nil)
	ucB := New(store, &fakeRunner{answer: "b"}, logger.NewNopLogger(), nil)

	idA := ucA.CreateSession()
	idB := ucB.CreateSession()

	doneA := make(chan error, 1)
	go func() {
		_, err := ucA.SendMessage(context.Background(), idA, "long")
		doneA <- err
	}()
	<-runnerA.started

	response, err := ucB.SendMessage(t.Context(), idB, "short")
	require.NoError(t, err)
	assert.Equal(t, "b", response)

	close(block)
	require.NoError(t, <-doneA)
}

func TestSendMessage_SurfacesPlainText(t *testing.T) {
	uc, _ := newUseCase(&fakeRunner{err: errors.New("boom")})
	id := uc.CreateSession()

	_, err := uc.SendMessage(t.Context(), id, "hello")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}
