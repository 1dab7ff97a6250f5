package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/evalbench/scenario"
)

type call struct {
	scenario string
	methods  []string
}

type recorder struct {
	calls []call
	err   error
}

func (r *recorder) run(
	_ context.Context,
	sc scenario.Scenario,
	methods []scenario.Method,
) error {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}

	r.calls = append(r.calls, call{scenario: sc.Name, methods: names})

	return r.err
}

func testScenarios() []scenario.Scenario {
	methods := []scenario.Method{{Name: "Alpha"}, {Name: "Beta"}, {Name: "Gamma"}}

	return []scenario.Scenario{
		{Name: "First", Methods: methods},
		{Name: "Second", Methods: methods},
	}
}

func runLoop(t *testing.T, input string, rec *recorder) string {
	t.Helper()

	var out bytes.Buffer

	sel := New(strings.NewReader(input), &out, testScenarios(), rec.run)
	require.NoError(t, sel.Loop(context.Background()))

	return out.String()
}

func TestLoopRendersScenarioMenu(t *testing.T) {
	out := runLoop(t, "\n", &recorder{})

	assert.Equal(t, "[0]\tFirst\n[1]\tSecond\n[ ]\tExit\nSelection: ", out)
	assert.NotContains(t, out, clearScreen, "buffer is not a terminal")
}

func TestLoopExitsWithoutRunning(t *testing.T) {
	for _, input := range []string{"", "\n", "x\n", "exit\n"} {
		rec := &recorder{}
		runLoop(t, input, rec)

		assert.Empty(t, rec.calls, "input %q", input)
	}
}

func TestLoopRunsSelectedMethods(t *testing.T) {
	rec := &recorder{}
	out := runLoop(t, "1\n2, 0,x,9\n\n\n", rec)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, call{scenario: "Second", methods: []string{"Gamma", "Alpha"}},
		rec.calls[0])
	assert.Contains(t, out, "[2]\tGamma\n[ ]\tAll\nSelection: ")
	assert.Contains(t, out, "Press enter to continue ...")
}

func TestLoopBlankSelectsAllMethods(t *testing.T) {
	rec := &recorder{}
	runLoop(t, "0\n\n\n\n", rec)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, rec.calls[0].methods)
}

func TestLoopInvalidSelectionRepeats(t *testing.T) {
	for _, input := range []string{"2\n\n0\n1\n\n\n", "-1\n\n0\n1\n\n\n"} {
		rec := &recorder{}
		out := runLoop(t, input, rec)

		assert.Contains(t, out, "Invalid selection! Press enter to repeat ...")
		assert.Equal(t, 3, strings.Count(out, "[ ]\tExit"), "input %q", input)
		require.Len(t, rec.calls, 1)
		assert.Equal(t, []string{"Beta"}, rec.calls[0].methods)
	}
}

func TestLoopNoValidMethods(t *testing.T) {
	rec := &recorder{}
	out := runLoop(t, "0\n7,x\n\n", rec)

	assert.Empty(t, rec.calls)
	assert.Contains(t, out, "No valid methods selected!")
}

func TestLoopShowsRunErrors(t *testing.T) {
	rec := &recorder{err: errors.New("result mismatch")}
	out := runLoop(t, "0\n0\n\n1\n\n\n", rec)

	assert.Len(t, rec.calls, 2)
	assert.Contains(t, out, "Benchmark failed: result mismatch")
}

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	rec := &recorder{}
	run := func(ctx context.Context, sc scenario.Scenario, m []scenario.Method) error {
		cancel()

		return errors.Join(rec.run(ctx, sc, m), context.Canceled)
	}

	var out bytes.Buffer
	sel := New(strings.NewReader("0\n\n\n0\n\n"), &out, testScenarios(), run)

	require.ErrorIs(t, sel.Loop(ctx), context.Canceled)
	assert.Len(t, rec.calls, 1)
}

func TestLoopStopsOnCancelWhileWaitingForInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in, w := io.Pipe()
	defer w.Close()

	var out bytes.Buffer
	sel := New(in, &out, testScenarios(), (&recorder{}).run)

	done := make(chan error, 1)

	go func() {
		done <- sel.Loop(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Loop did not return after cancel while waiting for input")
	}
}

func TestLoopStopsOnAbort(t *testing.T) {
	boom := errors.New("access denied")
	rec := &recorder{err: Abort(boom)}

	var out bytes.Buffer
	sel := New(strings.NewReader("0\n0\n\n0\n\n"), &out, testScenarios(), rec.run)

	err := sel.Loop(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.calls, 1)
	assert.NotContains(t, out.String(), "Benchmark failed")
	assert.Nil(t, Abort(nil))
}

func TestParseIndexes(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"0", []int{0}},
		{"3,1,2", []int{3, 1, 2}},
		{" 4 , 5 ", []int{4, 5}},
		{"a,1,,b", []int{1}},
		{"-2", []int{-2}},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseIndexes(tt.input), "input %q", tt.input)
	}
}
