package stabilize

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const clamonaccUnit = "clamav-clamonacc"

// clamonacc stops the ClamAV on-access scanner while the run is active.
type clamonacc struct {
	sys       System
	wasActive bool
	acquired  bool
}

// NewClamonacc returns a stabilizer that stops the ClamAV on-access
// scanning service if it is running, and starts it again on Release.
func NewClamonacc(sys System) Stabilizer {
	return &clamonacc{sys: sys}
}

func (c *clamonacc) Name() string {
	return "realtime-scan"
}

func (c *clamonacc) Acquire(ctx context.Context) error {
	if c.acquired {
		return nil
	}

	// is-active exits non-zero for inactive units; the state is on stdout.
	out, err := c.sys.Run(ctx, "systemctl", "is-active", clamonaccUnit)
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("systemctl: %w", ErrNotSupported)
	}

	state := strings.TrimSpace(string(out))
	if state == "" {
		if err != nil {
			return fmt.Errorf("%s state: %w: %w", clamonaccUnit, ErrNotSupported, err)
		}

		return fmt.Errorf("%s state: %w", clamonaccUnit, ErrNotSupported)
	}

	c.wasActive = state == "active"
	if c.wasActive {
		if _, err := c.sys.Run(ctx, "systemctl", "stop", clamonaccUnit); err != nil {
			return err
		}
	}

	c.acquired = true

	return nil
}

func (c *clamonacc) Release(ctx context.Context) error {
	if !c.acquired {
		return nil
	}

	if c.wasActive {
		if _, err := c.sys.Run(ctx, "systemctl", "start", clamonaccUnit); err != nil {
			return err
		}
	}

	c.acquired = false

	return nil
}

// defender toggles Microsoft Defender real-time monitoring.
type defender struct {
	sys      System
	original bool
	acquired bool
}

// NewDefender returns a stabilizer that disables Defender real-time
// monitoring and restores the previous preference on Release.
func NewDefender(sys System) Stabilizer {
	return &defender{sys: sys}
}

func (d *defender) Name() string {
	return "realtime-scan"
}

func (d *defender) Acquire(ctx context.Context) error {
	if d.acquired {
		return nil
	}

	out, err := d.powershell(ctx, "(Get-MpPreference).DisableRealtimeMonitoring")
	if err != nil {
		return err
	}

	original, err := strconv.ParseBool(strings.TrimSpace(string(out)))
	if err != nil {
		return fmt.Errorf("parse DisableRealtimeMonitoring: %w", err)
	}

	if err := d.set(ctx, true); err != nil {
		return err
	}

	d.original = original
	d.acquired = true

	return nil
}

func (d *defender) Release(ctx context.Context) error {
	if !d.acquired {
		return nil
	}

	if err := d.set(ctx, d.original); err != nil {
		return err
	}

	d.acquired = false

	return nil
}

func (d *defender) set(ctx context.Context, disabled bool) error {
	_, err := d.powershell(ctx, fmt.Sprintf(
		"Set-MpPreference -DisableRealtimeMonitoring $%t", disabled))

	return err
}

func (d *defender) powershell(ctx context.Context, script string) ([]byte, error) {
	return d.sys.Run(ctx, "powershell", "-NoProfile", "-NonInteractive",
		"-Command", script)
}
