package command

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
)

// testReducerMode lets a test make the child process misbehave.
const testReducerMode = "COMMAND_TEST_REDUCER"

func TestMain(m *testing.M) {
	if IsReducerProcess() {
		switch os.Getenv(testReducerMode) {
		case "hang":
			time.Sleep(time.Hour)
		case "crash":
			os.Stderr.WriteString("reducer blew up\n")
			os.Exit(3)
		}
		os.Exit(ServeReducer(os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(m.Run())
}

func TestProcessRunnerExecute(t *testing.T) {
	e, sink := newTestExecutor(t)
	e.Timeout = 10 * time.Second
	e.Runner = ProcessRunner{}

	res, err := e.Execute(context.Background(), state.New(), mustCommand(t, state.ActionAddObject, map[string]any{
		"object": map[string]any{"id": "mafi-1", "assetId": "mafi-trailer", "category": "vehicle"},
	}))
	require.NoError(t, err)
	require.Len(t, res.State.Objects, 1)
	assert.Equal(t, "mafi-1", res.State.Objects[0].ID)
	assert.Equal(t, OutcomeOK, sink.Records()[0].Outcome)
}

func TestProcessRunnerFailures(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		timeout time.Duration
		want    error
		outcome Outcome
		message string
	}{
		{"hung reducer is killed at the deadline", "hang", 200 * time.Millisecond, ErrTimeout, OutcomeTimeout, "no result"},
		{"crashed reducer", "crash", 10 * time.Second, ErrInternal, OutcomeInternal, "reducer blew up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, sink := newTestExecutor(t)
			e.Timeout = tt.timeout
			e.Runner = ProcessRunner{Env: []string{testReducerMode + "=" + tt.mode}}

			start := time.Now()
			_, err := e.Execute(context.Background(), state.New(), Command{Type: state.ActionClearSelection})
			elapsed := time.Since(start)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.message)
			// the child is gone when Execute returns; a hung one would
			// otherwise hold Run for an hour
			assert.Less(t, elapsed, tt.timeout+reaper+2*time.Second)
			assert.Equal(t, tt.outcome, sink.Records()[0].Outcome)
		})
	}
}

func TestServeReducer(t *testing.T) {
	st, err := msgpack.Marshal(state.New())
	require.NoError(t, err)
	action, err := msgpack.Marshal(state.Action{Type: state.ActionSetTime, Time: 7.5})
	require.NoError(t, err)
	frame, err := msgpack.Marshal(reducerFrame{State: st, Action: action})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.Equal(t, 0, ServeReducer(bytes.NewReader(frame), &out, &errOut))
	assert.Empty(t, errOut.String())

	next, err := decodeState(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 7.5, next.Timeline.CurrentTime)

	out.Reset()
	assert.Equal(t, 1, ServeReducer(bytes.NewReader([]byte{0xc1}), &out, &errOut))
	assert.Empty(t, out.Bytes())
	assert.Contains(t, errOut.String(), "decode frame")
}
