package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
)

// ReducerEnv marks a process started by ProcessRunner.
const ReducerEnv = "INCIDENT_REPLAY_REDUCER_PROCESS"

// Runner applies an encoded action to an encoded state away from the
// caller's memory and returns the encoded result. Run must return as soon
// as ctx is done.
type Runner interface {
	Run(ctx context.Context, encodedState, encodedAction []byte) ([]byte, error)
}

// GoroutineRunner applies the reducer on a fresh goroutine over decoded
// copies. A run that misses the deadline is abandoned; Go has no way to
// stop it.
type GoroutineRunner struct {
	Reducer Reducer
}

type outcome struct {
	data []byte
	err  error
}

func (r GoroutineRunner) Run(ctx context.Context, encodedState, encodedAction []byte) ([]byte, error) {
	results := make(chan outcome, 1)
	go func() {
		data, err := applyEncoded(r.Reducer, encodedState, encodedAction)
		results <- outcome{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-results:
		return out.data, out.err
	}
}

// ProcessRunner starts a new process for every command and kills it when
// ctx is done, so nothing of a timed-out run survives the call. The child
// must call ServeReducer when IsReducerProcess reports true.
type ProcessRunner struct {
	Path string   // empty means the running executable
	Args []string
	Env  []string // added to the parent's environment
}

type reducerFrame struct {
	State  msgpack.RawMessage `msgpack:"state"`
	Action msgpack.RawMessage `msgpack:"action"`
}

// reaper bounds how long Wait may block on pipes after the kill.
const reaper = time.Second

func (r ProcessRunner) Run(ctx context.Context, encodedState, encodedAction []byte) ([]byte, error) {
	path := r.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		path = exe
	}

	frame, err := msgpack.Marshal(reducerFrame{State: encodedState, Action: encodedAction})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, r.Args...)
	cmd.Env = append(append(os.Environ(), r.Env...), ReducerEnv+"=1")
	cmd.WaitDelay = reaper
	cmd.Stdin = bytes.NewReader(frame)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("reducer process: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("reducer process: %w", err)
	}
	return stdout.Bytes(), nil
}

// IsReducerProcess reports whether this process was started by a
// ProcessRunner.
func IsReducerProcess() bool {
	return os.Getenv(ReducerEnv) == "1"
}

// ServeReducer is the child side of ProcessRunner: it reads one frame from
// in, applies state.Apply and writes the encoded state to out. It returns
// the exit code for the process.
func ServeReducer(in io.Reader, out, errOut io.Writer) int {
	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(errOut, "read frame: %v\n", err)
		return 1
	}
	var frame reducerFrame
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		fmt.Fprintf(errOut, "decode frame: %v\n", err)
		return 1
	}
	result, err := applyEncoded(state.Apply, frame.State, frame.Action)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if _, err := out.Write(result); err != nil {
		fmt.Fprintf(errOut, "write result: %v\n", err)
		return 1
	}
	return 0
}

// applyEncoded runs reducer on private decoded copies and encodes the
// result. A panic in the reducer becomes an error.
func applyEncoded(reducer Reducer, encodedState, encodedAction []byte) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	st, err := decodeState(encodedState)
	if err != nil {
		return nil, err
	}
	var action state.Action
	if err := newDecoder(encodedAction).Decode(&action); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	return msgpack.Marshal(reducer(st, action))
}
