package stabilize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	stopped int
	err     error
}

func (p *fakeProcess) Stop() error {
	p.stopped++

	return p.err
}

// fakeSystem keeps files in memory and answers commands through handle.
type fakeSystem struct {
	files    map[string]string
	calls    []string
	handle   func(line string) (string, error)
	procs    []*fakeProcess
	startErr error
	writeErr error
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{files: make(map[string]string)}
}

func (f *fakeSystem) ReadFile(name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}

	return []byte(data), nil
}

func (f *fakeSystem) WriteFile(name string, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}

	f.files[name] = string(data)

	return nil
}

func (f *fakeSystem) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)

	if f.handle == nil {
		return nil, nil
	}

	out, err := f.handle(line)

	return []byte(out), err
}

func (f *fakeSystem) Start(_ context.Context, name string, args ...string) (Process, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))

	if f.startErr != nil {
		return nil, f.startErr
	}

	p := &fakeProcess{}
	f.procs = append(f.procs, p)

	return p, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSysfsBoostRestoresOriginal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		original string
		disabled string
	}{
		{"cpufreq", cpufreqBoostPath, "1\n", "0\n"},
		{"intel_pstate", noTurboPath, "0\n", "1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sys := newFakeSystem()
			sys.files[tt.path] = tt.original

			s := NewSysfsBoost(sys)
			require.NoError(t, s.Acquire(ctx))
			assert.Equal(t, tt.disabled, sys.files[tt.path])

			require.NoError(t, s.Release(ctx))
			assert.Equal(t, tt.original, sys.files[tt.path])

			sys.files[tt.path] = "changed"
			require.NoError(t, s.Release(ctx))
			assert.Equal(t, "changed", sys.files[tt.path], "second release wrote")
		})
	}
}

func TestSysfsBoostPrefersCpufreq(t *testing.T) {
	sys := newFakeSystem()
	sys.files[cpufreqBoostPath] = "1"
	sys.files[noTurboPath] = "0"

	s := NewSysfsBoost(sys)
	require.NoError(t, s.Acquire(context.Background()))

	assert.Equal(t, "0\n", sys.files[cpufreqBoostPath])
	assert.Equal(t, "0", sys.files[noTurboPath])
}

func TestSysfsBoostNotSupported(t *testing.T) {
	s := NewSysfsBoost(newFakeSystem())

	require.ErrorIs(t, s.Acquire(context.Background()), ErrNotSupported)
}

func TestSysfsBoostWriteFailure(t *testing.T) {
	sys := newFakeSystem()
	sys.files[cpufreqBoostPath] = "1"
	sys.writeErr = fs.ErrPermission

	s := NewSysfsBoost(sys)
	require.ErrorIs(t, s.Acquire(context.Background()), fs.ErrPermission)
	require.NoError(t, s.Release(context.Background()))
}

// powercfgHost emulates the AC boost mode index of the active scheme.
func powercfgHost(index *uint64) func(string) (string, error) {
	return func(line string) (string, error) {
		fields := strings.Fields(line)

		switch fields[1] {
		case "/QUERY":
			return fmt.Sprintf("Power Setting GUID: %s  (Processor performance boost mode)\n"+
				"    Current AC Power Setting Index: 0x%08x\n"+
				"    Current DC Power Setting Index: 0x00000001\n",
				perfBoostModeGUID, *index), nil
		case "/SETACVALUEINDEX":
			_, err := fmt.Sscan(fields[len(fields)-1], index)

			return "", err
		}

		return "", nil
	}
}

func TestPowercfgBoostRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	index := uint64(2)

	sys := newFakeSystem()
	sys.handle = powercfgHost(&index)

	s := NewPowercfgBoost(sys)
	require.NoError(t, s.Acquire(ctx))
	assert.Equal(t, uint64(boostModeDisabled), index)
	assert.Contains(t, sys.calls, "powercfg /SETACTIVE SCHEME_CURRENT")

	require.NoError(t, s.Release(ctx))
	assert.Equal(t, uint64(2), index)

	calls := len(sys.calls)
	require.NoError(t, s.Release(ctx))
	assert.Len(t, sys.calls, calls, "second release ran commands")
}

func TestPowercfgBoostRestoresAfterFailedApply(t *testing.T) {
	ctx := context.Background()
	index := uint64(2)
	boom := errors.New("access denied")

	host := powercfgHost(&index)

	sys := newFakeSystem()
	sys.handle = func(line string) (string, error) {
		if strings.Contains(line, "/SETACTIVE") {
			return "", boom
		}

		return host(line)
	}

	s := NewPowercfgBoost(sys)
	require.ErrorIs(t, s.Acquire(ctx), boom)
	assert.Equal(t, uint64(2), index, "AC index left at the disabled value")
	assert.Contains(t, sys.calls,
		"powercfg /SETACVALUEINDEX SCHEME_CURRENT "+subProcessorGUID+" "+perfBoostModeGUID+" 2")

	calls := len(sys.calls)
	require.NoError(t, s.Release(ctx))
	assert.Len(t, sys.calls, calls, "release after a failed acquire ran commands")
}

func TestParseACIndex(t *testing.T) {
	got, err := parseACIndex([]byte("Current AC Power Setting Index: 0x00000003"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	_, err = parseACIndex([]byte("Invalid Parameters"))
	assert.Error(t, err)
}

func TestClamonacc(t *testing.T) {
	tests := []struct {
		name      string
		state     string
		wantCalls []string
	}{
		{
			name:  "active",
			state: "active\n",
			wantCalls: []string{
				"systemctl is-active clamav-clamonacc",
				"systemctl stop clamav-clamonacc",
				"systemctl start clamav-clamonacc",
			},
		},
		{
			name:  "inactive",
			state: "inactive\n",
			wantCalls: []string{
				"systemctl is-active clamav-clamonacc",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sys := newFakeSystem()
			sys.handle = func(line string) (string, error) {
				if strings.Contains(line, "is-active") {
					if tt.state != "active\n" {
						return tt.state, errors.New("exit status 3")
					}

					return tt.state, nil
				}

				return "", nil
			}

			s := NewClamonacc(sys)
			require.NoError(t, s.Acquire(ctx))
			require.NoError(t, s.Release(ctx))
			require.NoError(t, s.Release(ctx))

			assert.Equal(t, tt.wantCalls, sys.calls)
		})
	}
}

func TestClamonaccNotSupported(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"no systemctl", "", fmt.Errorf("systemctl: %w", exec.ErrNotFound)},
		{"no systemd", "", errors.New("exit status 1")},
		{"empty state", "\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sys := newFakeSystem()
			sys.handle = func(string) (string, error) {
				return tt.out, tt.err
			}

			s := NewClamonacc(sys)
			require.ErrorIs(t, s.Acquire(ctx), ErrNotSupported)
			require.NoError(t, s.Release(ctx))

			assert.Equal(t, []string{"systemctl is-active clamav-clamonacc"}, sys.calls)
		})
	}
}

func TestDefenderRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	disabled := false

	sys := newFakeSystem()
	sys.handle = func(line string) (string, error) {
		switch {
		case strings.Contains(line, "Get-MpPreference"):
			if disabled {
				return "True\r\n", nil
			}

			return "False\r\n", nil
		case strings.Contains(line, "-DisableRealtimeMonitoring $true"):
			disabled = true
		case strings.Contains(line, "-DisableRealtimeMonitoring $false"):
			disabled = false
		}

		return "", nil
	}

	s := NewDefender(sys)
	require.NoError(t, s.Acquire(ctx))
	assert.True(t, disabled)

	require.NoError(t, s.Release(ctx))
	assert.False(t, disabled)
}

func TestDefenderUnreadablePreference(t *testing.T) {
	sys := newFakeSystem()
	sys.handle = func(string) (string, error) {
		return "Get-MpPreference : not recognized", nil
	}

	s := NewDefender(sys)
	require.Error(t, s.Acquire(context.Background()))
}

func TestSystemdInhibit(t *testing.T) {
	ctx := context.Background()
	sys := newFakeSystem()

	s := NewSystemdInhibit(sys)
	require.NoError(t, s.Acquire(ctx))
	require.NoError(t, s.Acquire(ctx))
	require.Len(t, sys.procs, 1)
	assert.Contains(t, sys.calls[0], "--what=sleep:idle")

	require.NoError(t, s.Release(ctx))
	require.NoError(t, s.Release(ctx))
	assert.Equal(t, 1, sys.procs[0].stopped)
}

func TestSystemdInhibitMissing(t *testing.T) {
	sys := newFakeSystem()
	sys.startErr = fmt.Errorf("start systemd-inhibit: %w", exec.ErrNotFound)

	s := NewSystemdInhibit(sys)
	require.ErrorIs(t, s.Acquire(context.Background()), ErrNotSupported)
}

func TestSystemdInhibitExitsAtOnce(t *testing.T) {
	sys := newFakeSystem()
	sys.startErr = fmt.Errorf("systemd-inhibit: %w: exit status 1", ErrExited)

	s := NewSystemdInhibit(sys)
	require.ErrorIs(t, s.Acquire(context.Background()), ErrNotSupported)
	require.NoError(t, s.Release(context.Background()))
}

func TestExecSystemStart(t *testing.T) {
	for _, name := range []string{"true", "sleep"} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}

	ctx := context.Background()

	t.Run("exits at once", func(t *testing.T) {
		sys := &execSystem{logger: quietLogger(), grace: 2 * time.Second}

		_, err := sys.Start(ctx, "true")
		require.ErrorIs(t, err, ErrExited)
	})

	t.Run("keeps running", func(t *testing.T) {
		sys := &execSystem{logger: quietLogger(), grace: 50 * time.Millisecond}

		proc, err := sys.Start(ctx, "sleep", "30")
		require.NoError(t, err)
		require.NoError(t, proc.Stop())
	})

	t.Run("exits before stop", func(t *testing.T) {
		sys := &execSystem{logger: quietLogger(), grace: 10 * time.Millisecond}

		proc, err := sys.Start(ctx, "sleep", "0.2")
		require.NoError(t, err)

		time.Sleep(time.Second)
		require.NoError(t, proc.Stop())
	})
}

func TestSystemdInhibitStopFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("kill failed")

	sys := newFakeSystem()

	s := NewSystemdInhibit(sys)
	require.NoError(t, s.Acquire(ctx))

	sys.procs[0].err = boom
	require.ErrorIs(t, s.Release(ctx), boom)

	sys.procs[0].err = nil
	require.NoError(t, s.Release(ctx))
	assert.Equal(t, 2, sys.procs[0].stopped)
}

// recorder is a stabilizer that logs its calls into a shared slice.
type recorder struct {
	name       string
	log        *[]string
	acquireErr error
	releaseErr error
}

func (r *recorder) Name() string {
	return r.name
}

func (r *recorder) Acquire(context.Context) error {
	*r.log = append(*r.log, "acquire "+r.name)

	return r.acquireErr
}

func (r *recorder) Release(context.Context) error {
	*r.log = append(*r.log, "release "+r.name)

	return r.releaseErr
}

func TestGuardReleasesInReverse(t *testing.T) {
	ctx := context.Background()

	var log []string

	g, err := Acquire(ctx, quietLogger(),
		&recorder{name: "a", log: &log},
		&recorder{name: "b", log: &log},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.Active())

	require.NoError(t, g.Release(ctx))
	require.NoError(t, g.Release(ctx))

	assert.Equal(t, []string{
		"acquire a", "acquire b", "release b", "release a",
	}, log)
	assert.Empty(t, g.Active())
}

func TestGuardRollsBackPartialAcquisition(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("access denied")

	var log []string

	g, err := Acquire(ctx, quietLogger(),
		&recorder{name: "a", log: &log},
		&recorder{name: "b", log: &log},
		&recorder{name: "c", log: &log, acquireErr: boom},
		&recorder{name: "d", log: &log},
	)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, g)
	assert.Contains(t, err.Error(), "acquire c")

	assert.Equal(t, []string{
		"acquire a", "acquire b", "acquire c", "release b", "release a",
	}, log)
}

func TestGuardSkipsUnsupported(t *testing.T) {
	ctx := context.Background()

	var log []string

	g, err := Acquire(ctx, quietLogger(),
		&recorder{name: "a", log: &log, acquireErr: ErrNotSupported},
		&recorder{name: "b", log: &log},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, g.Active())

	require.NoError(t, g.Release(ctx))
	assert.Equal(t, []string{"acquire a", "acquire b", "release b"}, log)
}

func TestGuardJoinsReleaseErrors(t *testing.T) {
	ctx := context.Background()
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	var log []string

	g, err := Acquire(ctx, quietLogger(),
		&recorder{name: "a", log: &log, releaseErr: errA},
		&recorder{name: "b", log: &log, releaseErr: errB},
	)
	require.NoError(t, err)

	err = g.Release(ctx)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	assert.Equal(t, "release a", log[len(log)-1], "release continues after a failure")
}

func TestNilGuardRelease(t *testing.T) {
	var g *Guard

	assert.NoError(t, g.Release(context.Background()))
	assert.Nil(t, g.Active())
}
