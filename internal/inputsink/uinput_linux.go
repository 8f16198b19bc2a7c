//go:build linux

// Package inputsink's Linux backend creates virtual stylus and touch
// devices through /dev/uinput, driven by the StylusState/MultiTouchState
// reports in stylus.go/multitouch.go. Grounded on
// original_source/server/src/input/uinput_backend.cpp, reimplemented
// without cgo using golang.org/x/sys/unix ioctl wrappers the way the
// teacher's internal/tls package prefers stdlib/x/sys primitives over C
// bindings wherever the kernel interface is just ioctl plus a byte
// struct.
package inputsink

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"inkstream/internal/types"
)

// linux/uinput.h and linux/input-event-codes.h constants. Not exposed by
// golang.org/x/sys/unix, so declared here the way every pure-Go uinput
// binding does.
const (
	uiSetEvbit  = 0x40045564
	uiSetKeybit = 0x40045565
	uiSetPropbit = 0x4004556e
	uiDevSetup  = 0x405c5503
	uiDevCreate = 0x5501
	uiDevDestroy = 0x5502
	uiAbsSetup  = 0x401c5504

	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	absX            = 0x00
	absY            = 0x01
	absPressure     = 0x18
	absTiltX        = 0x1a
	absTiltY        = 0x1b
	absMtSlot       = 0x2f
	absMtTouchMajor = 0x30
	absMtTrackingID = 0x39
	absMtPositionX  = 0x35
	absMtPositionY  = 0x36
	absMtPressure   = 0x3a

	btnTouch        = 0x14a
	btnToolPen      = 0x140
	btnToolRubber   = 0x141
	btnToolFinger   = 0x145
	btnToolDoubletap = 0x14d
	btnToolTripletap = 0x14e
	btnToolQuadtap   = 0x14f
	btnToolQuinttap  = 0x148

	inputPropDirect = 0x01

	busVirtual = 0x06

	absMaxVal = 65535
)

// uinputAbsSetup mirrors struct uinput_abs_setup { __u16 code; struct
// input_absinfo absinfo; } with its implicit padding on amd64/arm64.
type uinputAbsSetup struct {
	Code     uint16
	_        uint16 // padding to align absinfo's int32 fields
	Value    int32
	Minimum  int32
	Maximum  int32
	Fuzz     int32
	Flat     int32
	Resolution int32
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
	Name    [80]byte
	FFEffectsMax uint32
}

// inputEvent mirrors struct input_event on a 64-bit kernel (16-byte
// timeval, the layout every current distro ships).
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func ioctlNoArg(fd int, req uint) error {
	return unix.IoctlSetInt(fd, req, 0)
}

func ioctlSetInt(fd int, req uint, val int) error {
	return unix.IoctlSetInt(fd, req, val)
}

func ioctlPtr(fd int, req uintptr, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}

func emit(fd int, typ, code uint16, value int32) error {
	now := time.Now()
	ev := inputEvent{Sec: now.Unix(), Usec: int64(now.Nanosecond() / 1000), Type: typ, Code: code, Value: value}
	buf := make([]byte, unsafe.Sizeof(ev))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ev.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ev.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))
	_, err := unix.Write(fd, buf)
	return err
}

func sync(fd int) error { return emit(fd, evSyn, synReport, 0) }

func setupDevice(name string, vendorID uint16, evKeys []int, evAbsAxes []uinputAbsSetup) (int, error) {
	fd, err := unix.Open("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("open /dev/uinput: %w", err)
	}

	if err := ioctlSetInt(fd, uiSetEvbit, evSyn); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := ioctlSetInt(fd, uiSetPropbit, inputPropDirect); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if len(evKeys) > 0 {
		if err := ioctlSetInt(fd, uiSetEvbit, evKey); err != nil {
			unix.Close(fd)
			return -1, err
		}
		for _, k := range evKeys {
			if err := ioctlSetInt(fd, uiSetKeybit, k); err != nil {
				unix.Close(fd)
				return -1, err
			}
		}
	}
	if len(evAbsAxes) > 0 {
		if err := ioctlSetInt(fd, uiSetEvbit, evAbs); err != nil {
			unix.Close(fd)
			return -1, err
		}
		for i := range evAbsAxes {
			if err := ioctlPtr(fd, uiAbsSetup, unsafe.Pointer(&evAbsAxes[i])); err != nil {
				unix.Close(fd)
				return -1, err
			}
		}
	}

	var setup uinputSetup
	setup.BusType = busVirtual
	setup.Vendor = 0x1701
	setup.Product = vendorID
	setup.Version = 1
	copy(setup.Name[:], name)

	if err := ioctlPtr(fd, uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := ioctlNoArg(fd, uiDevCreate); err != nil {
		unix.Close(fd)
		return -1, err
	}
	time.Sleep(50 * time.Millisecond)
	return fd, nil
}

func destroyDevice(fd int) {
	if fd < 0 {
		return
	}
	ioctlNoArg(fd, uiDevDestroy)
	unix.Close(fd)
}

// UInputSink drives the virtual stylus and touch devices from
// StylusReport/MultiTouchReport values.
type UInputSink struct {
	stylusFD, touchFD int
	screenW, screenH  int
}

// NewUInputSink creates the stylus and touch uinput devices, sized to
// screenW x screenH for the 0..65535 absolute-axis transform every uinput
// consumer (Weylus, libinput) expects.
func NewUInputSink(screenW, screenH int) (*UInputSink, error) {
	stylusFD, err := setupDevice("inkstream Stylus", 0x1701,
		[]int{btnToolPen, btnToolRubber, btnTouch},
		[]uinputAbsSetup{
			{Code: absX, Maximum: absMaxVal, Resolution: 12},
			{Code: absY, Maximum: absMaxVal, Resolution: 12},
			{Code: absPressure, Maximum: absMaxVal, Resolution: 12},
			{Code: absTiltX, Minimum: -90, Maximum: 90, Resolution: 12},
			{Code: absTiltY, Minimum: -90, Maximum: 90},
		})
	if err != nil {
		return nil, types.NewError(types.ErrResourceUnavailable, "inputsink.NewUInputSink", fmt.Errorf("stylus device: %w", err))
	}

	touchFD, err := setupDevice("inkstream Touch", 0x1702,
		[]int{btnTouch, btnToolFinger, btnToolDoubletap, btnToolTripletap, btnToolQuadtap, btnToolQuinttap},
		[]uinputAbsSetup{
			{Code: absX, Maximum: absMaxVal, Resolution: 200},
			{Code: absY, Maximum: absMaxVal, Resolution: 200},
			{Code: absMtSlot, Maximum: MaxTouchSlots - 1},
			{Code: absMtTrackingID, Maximum: MaxTouchSlots - 1},
			{Code: absMtPositionX, Maximum: absMaxVal, Resolution: 200},
			{Code: absMtPositionY, Maximum: absMaxVal, Resolution: 200},
			{Code: absMtPressure, Maximum: absMaxVal},
		})
	if err != nil {
		destroyDevice(stylusFD)
		return nil, types.NewError(types.ErrResourceUnavailable, "inputsink.NewUInputSink", fmt.Errorf("touch device: %w", err))
	}

	return &UInputSink{stylusFD: stylusFD, touchFD: touchFD, screenW: screenW, screenH: screenH}, nil
}

func (s *UInputSink) toAbs(v, max int) int32 {
	if max <= 0 {
		return 0
	}
	return int32(float64(v) / float64(max) * absMaxVal)
}

// ApplyStylus writes one StylusReport to the stylus device.
func (s *UInputSink) ApplyStylus(rep StylusReport) error {
	if s.stylusFD < 0 {
		return nil
	}
	if rep.InRange {
		if rep.ToolChanged {
			if rep.Tool == ToolRubber {
				if err := emit(s.stylusFD, evKey, btnToolPen, 0); err != nil {
					return err
				}
				if err := emit(s.stylusFD, evKey, btnToolRubber, 1); err != nil {
					return err
				}
			} else {
				if err := emit(s.stylusFD, evKey, btnToolRubber, 0); err != nil {
					return err
				}
				if err := emit(s.stylusFD, evKey, btnToolPen, 1); err != nil {
					return err
				}
			}
		}
		if rep.TipDownChanged {
			v := int32(0)
			if rep.TipDown {
				v = 1
			}
			if err := emit(s.stylusFD, evKey, btnTouch, v); err != nil {
				return err
			}
		}
		pressure := int32(0)
		if rep.TipDown {
			pressure = int32(rep.Pressure * absMaxVal)
		}
		if err := emit(s.stylusFD, evAbs, absX, s.toAbs(rep.X, s.screenW)); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evAbs, absY, s.toAbs(rep.Y, s.screenH)); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evAbs, absPressure, pressure); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evAbs, absTiltX, int32(rep.TiltX)); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evAbs, absTiltY, int32(rep.TiltY)); err != nil {
			return err
		}
	} else if rep.InRangeChanged {
		if err := emit(s.stylusFD, evKey, btnTouch, 0); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evKey, btnToolPen, 0); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evKey, btnToolRubber, 0); err != nil {
			return err
		}
		if err := emit(s.stylusFD, evAbs, absPressure, 0); err != nil {
			return err
		}
	}
	return sync(s.stylusFD)
}

func toolButtonForCount(n int) uint16 {
	switch n {
	case 1:
		return btnToolFinger
	case 2:
		return btnToolDoubletap
	case 3:
		return btnToolTripletap
	case 4:
		return btnToolQuadtap
	default:
		return btnToolQuinttap
	}
}

// ApplyTouch writes one MultiTouchReport to the touch device.
func (s *UInputSink) ApplyTouch(rep MultiTouchReport, wasActiveBefore bool) error {
	if s.touchFD < 0 || !rep.Updated {
		return nil
	}
	if err := emit(s.touchFD, evAbs, absMtSlot, int32(rep.Slot.Slot)); err != nil {
		return err
	}

	if rep.Slot.Active {
		trackingID := int32(-1)
		if !wasActiveBefore {
			trackingID = int32(rep.Slot.TrackingID)
			if err := emit(s.touchFD, evAbs, absMtTrackingID, trackingID); err != nil {
				return err
			}
			if err := emit(s.touchFD, evKey, btnTouch, 1); err != nil {
				return err
			}
			if rep.ActiveCount > 1 {
				if err := emit(s.touchFD, evKey, toolButtonForCount(rep.ActiveCount-1), 0); err != nil {
					return err
				}
			}
			if err := emit(s.touchFD, evKey, toolButtonForCount(rep.ActiveCount), 1); err != nil {
				return err
			}
		}
		if err := emit(s.touchFD, evAbs, absMtPositionX, s.toAbs(rep.Slot.X, s.screenW)); err != nil {
			return err
		}
		if err := emit(s.touchFD, evAbs, absMtPositionY, s.toAbs(rep.Slot.Y, s.screenH)); err != nil {
			return err
		}
		if err := emit(s.touchFD, evAbs, absX, s.toAbs(rep.Slot.X, s.screenW)); err != nil {
			return err
		}
		if err := emit(s.touchFD, evAbs, absY, s.toAbs(rep.Slot.Y, s.screenH)); err != nil {
			return err
		}
	} else {
		if err := emit(s.touchFD, evAbs, absMtTrackingID, -1); err != nil {
			return err
		}
		if rep.ActiveCount == 0 {
			if err := emit(s.touchFD, evKey, btnTouch, 0); err != nil {
				return err
			}
		}
		if err := emit(s.touchFD, evKey, toolButtonForCount(rep.ActiveCount+1), 0); err != nil {
			return err
		}
		if rep.ActiveCount > 0 {
			if err := emit(s.touchFD, evKey, toolButtonForCount(rep.ActiveCount), 1); err != nil {
				return err
			}
		}
	}
	return sync(s.touchFD)
}

// Shutdown releases any stuck-down contacts and destroys both devices.
func (s *UInputSink) Shutdown() {
	if s.stylusFD >= 0 {
		emit(s.stylusFD, evKey, btnTouch, 0)
		emit(s.stylusFD, evKey, btnToolPen, 0)
		emit(s.stylusFD, evKey, btnToolRubber, 0)
		sync(s.stylusFD)
		destroyDevice(s.stylusFD)
		s.stylusFD = -1
	}
	if s.touchFD >= 0 {
		emit(s.touchFD, evKey, btnTouch, 0)
		sync(s.touchFD)
		destroyDevice(s.touchFD)
		s.touchFD = -1
	}
}
