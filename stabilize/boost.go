package stabilize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
)

const (
	cpufreqBoostPath = "/sys/devices/system/cpu/cpufreq/boost"
	noTurboPath      = "/sys/devices/system/cpu/intel_pstate/no_turbo"
)

type boostKnob struct {
	path     string
	disabled string
}

// sysfsBoost turns off CPU frequency boost through sysfs.
type sysfsBoost struct {
	sys      System
	knobs    []boostKnob
	path     string
	original string
	acquired bool
}

// NewSysfsBoost returns a stabilizer that disables CPU boost through the
// cpufreq boost switch, or the intel_pstate no_turbo switch when the
// former is absent.
func NewSysfsBoost(sys System) Stabilizer {
	return &sysfsBoost{
		sys: sys,
		knobs: []boostKnob{
			{path: cpufreqBoostPath, disabled: "0"},
			{path: noTurboPath, disabled: "1"},
		},
	}
}

func (b *sysfsBoost) Name() string {
	return "cpu-boost"
}

func (b *sysfsBoost) Acquire(_ context.Context) error {
	if b.acquired {
		return nil
	}

	for _, knob := range b.knobs {
		data, err := b.sys.ReadFile(knob.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("read %s: %w", knob.path, err)
		}

		if err := b.sys.WriteFile(knob.path, []byte(knob.disabled+"\n")); err != nil {
			return fmt.Errorf("write %s: %w", knob.path, err)
		}

		b.path = knob.path
		b.original = strings.TrimSpace(string(data))
		b.acquired = true

		return nil
	}

	return fmt.Errorf("no cpu boost switch: %w", ErrNotSupported)
}

func (b *sysfsBoost) Release(_ context.Context) error {
	if !b.acquired {
		return nil
	}

	if err := b.sys.WriteFile(b.path, []byte(b.original+"\n")); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}

	b.acquired = false

	return nil
}

// Power setting identifiers of the processor performance boost mode.
const (
	subProcessorGUID  = "54533251-82be-4824-96c1-47b60b740d00"
	perfBoostModeGUID = "be337238-0d82-4146-a960-4f3749d470c7"
	boostModeDisabled = 0
)

var acIndexPattern = regexp.MustCompile(
	`Current AC Power Setting Index:\s*0x([0-9a-fA-F]+)`)

// powercfgBoost sets the processor boost mode of the active power scheme.
type powercfgBoost struct {
	sys      System
	original uint64
	acquired bool
}

// NewPowercfgBoost returns a stabilizer that disables processor boost
// through powercfg.
func NewPowercfgBoost(sys System) Stabilizer {
	return &powercfgBoost{sys: sys}
}

func (b *powercfgBoost) Name() string {
	return "cpu-boost"
}

func (b *powercfgBoost) Acquire(ctx context.Context) error {
	if b.acquired {
		return nil
	}

	out, err := b.sys.Run(ctx, "powercfg", "/QUERY",
		"SCHEME_CURRENT", subProcessorGUID, perfBoostModeGUID)
	if err != nil {
		return err
	}

	original, err := parseACIndex(out)
	if err != nil {
		return err
	}

	b.original = original

	// A failed set may leave the index written but not applied.
	if err := b.set(ctx, boostModeDisabled); err != nil {
		if restoreErr := b.set(ctx, original); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("restore boost mode: %w", restoreErr))
		}

		return err
	}

	b.acquired = true

	return nil
}

func (b *powercfgBoost) Release(ctx context.Context) error {
	if !b.acquired {
		return nil
	}

	if err := b.set(ctx, b.original); err != nil {
		return err
	}

	b.acquired = false

	return nil
}

func (b *powercfgBoost) set(ctx context.Context, index uint64) error {
	if _, err := b.sys.Run(ctx, "powercfg", "/SETACVALUEINDEX",
		"SCHEME_CURRENT", subProcessorGUID, perfBoostModeGUID,
		strconv.FormatUint(index, 10)); err != nil {
		return err
	}

	_, err := b.sys.Run(ctx, "powercfg", "/SETACTIVE", "SCHEME_CURRENT")

	return err
}

func parseACIndex(out []byte) (uint64, error) {
	m := acIndexPattern.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no AC power setting index in powercfg output")
	}

	return strconv.ParseUint(string(m[1]), 16, 32)
}
