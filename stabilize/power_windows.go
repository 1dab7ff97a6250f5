//go:build windows

package stabilize

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	powerRequestContextVersion      = 0
	powerRequestContextSimpleString = 0x1
	powerRequestSystemRequired      = 1
)

var (
	modkernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procPowerCreateRequest = modkernel32.NewProc("PowerCreateRequest")
	procPowerSetRequest    = modkernel32.NewProc("PowerSetRequest")
	procPowerClearRequest  = modkernel32.NewProc("PowerClearRequest")
)

// reasonContext mirrors REASON_CONTEXT. The trailing padding covers the
// detailed variant of the union.
type reasonContext struct {
	version uint32
	flags   uint32
	reason  *uint16
	_       [2]uintptr
}

// powerRequest keeps the system out of standby with a power request.
type powerRequest struct {
	handle windows.Handle
}

// NewPowerRequest returns a stabilizer that holds a system-required power
// request for the duration of the run.
func NewPowerRequest() Stabilizer {
	return &powerRequest{handle: windows.InvalidHandle}
}

func (p *powerRequest) Name() string {
	return "standby"
}

func (p *powerRequest) Acquire(_ context.Context) error {
	if p.handle != windows.InvalidHandle {
		return nil
	}

	if err := procPowerCreateRequest.Find(); err != nil {
		return fmt.Errorf("PowerCreateRequest: %w", ErrNotSupported)
	}

	reason, err := windows.UTF16PtrFromString(standbyReason)
	if err != nil {
		return err
	}

	rc := reasonContext{
		version: powerRequestContextVersion,
		flags:   powerRequestContextSimpleString,
		reason:  reason,
	}

	r1, _, callErr := procPowerCreateRequest.Call(uintptr(unsafe.Pointer(&rc)))

	handle := windows.Handle(r1)
	if handle == windows.InvalidHandle || handle == 0 {
		return fmt.Errorf("PowerCreateRequest: %w", callErr)
	}

	r1, _, callErr = procPowerSetRequest.Call(uintptr(handle), powerRequestSystemRequired)
	if r1 == 0 {
		windows.CloseHandle(handle)

		return fmt.Errorf("PowerSetRequest: %w", callErr)
	}

	p.handle = handle

	return nil
}

func (p *powerRequest) Release(_ context.Context) error {
	if p.handle == windows.InvalidHandle {
		return nil
	}

	r1, _, callErr := procPowerClearRequest.Call(uintptr(p.handle), powerRequestSystemRequired)
	if r1 == 0 {
		return fmt.Errorf("PowerClearRequest: %w", callErr)
	}

	if err := windows.CloseHandle(p.handle); err != nil {
		return fmt.Errorf("close power request: %w", err)
	}

	p.handle = windows.InvalidHandle

	return nil
}
