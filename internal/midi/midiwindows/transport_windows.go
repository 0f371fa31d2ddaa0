//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIOUT windows.Handle

const (
	CALLBACK_NULL        = 0x00000000
	MIDIERR_STILLPLAYING = 65 // MIDIERR_BASE + 1
	longMsgTimeout       = 100 * time.Millisecond
)

var (
	ErrNoMIDIDevices = errors.New("no MIDI output devices found")
	ErrUnknownHandle = errors.New("unknown MIDI handle")
	ErrEmptyMessage  = errors.New("empty MIDI message")
)

// Struct representing MIDI output device capabilities (MIDIOUTCAPSW)
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors MIDIHDR for system exclusive output.
type midiHdr struct {
	lpData          *byte
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                      = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
)

// Transport sends sync messages to winmm output devices.
type Transport struct {
	logger contracts.Logger
	mu     sync.Mutex
	open   map[contracts.Handle]HMIDIOUT
}

// NewTransport creates a winmm output transport.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("MIDI output transport created for Windows")
	return &Transport{
		logger: options.Logger,
		open:   make(map[contracts.Handle]HMIDIOUT),
	}, nil
}

// ListDevices lists the available MIDI output devices
func (m *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("Failed to get information for MIDI output device", m.logger.Field().Int("index", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			Index:        int(i),
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// Open opens the output device at index.
func (m *Transport) Open(index int) (contracts.Handle, error) {
	var hmo HMIDIOUT
	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&hmo)),
		uintptr(index),
		0,
		0,
		CALLBACK_NULL,
	)
	if r1 != 0 {
		m.logger.Error("Failed to open MIDI output device",
			m.logger.Field().Int("index", index),
			m.logger.Field().Error("error", err))
		return contracts.Handle{}, fmt.Errorf("failed to open MIDI output device %d: %v", index, err)
	}

	h := contracts.NewHandle()
	m.mu.Lock()
	m.open[h] = hmo
	m.mu.Unlock()

	m.logger.Info("MIDI output device opened",
		m.logger.Field().Int("index", index),
		m.logger.Field().String("handle", h.String()))
	return h, nil
}

// Close closes the device behind h.
func (m *Transport) Close(h contracts.Handle) error {
	m.mu.Lock()
	hmo, ok := m.open[h]
	delete(m.open, h)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return closeDevice(hmo)
}

func closeDevice(hmo HMIDIOUT) error {
	r1, _, err := procMidiOutClose.Call(uintptr(hmo))
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI output device: %v", err)
	}
	return nil
}

// Send writes one message. Messages of up to three bytes go out as short messages;
// system exclusive goes through a prepared header.
func (m *Transport) Send(h contracts.Handle, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyMessage
	}
	m.mu.Lock()
	hmo, ok := m.open[h]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}

	if data[0] == 0xF0 || len(data) > 3 {
		return sendLong(hmo, data)
	}

	var msg uintptr
	for i, b := range data {
		msg |= uintptr(b) << (8 * i)
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(hmo), msg)
	if r1 != 0 {
		return fmt.Errorf("midiOutShortMsg failed: %v", err)
	}
	return nil
}

func sendLong(hmo HMIDIOUT, data []byte) error {
	buf := append([]byte(nil), data...)
	hdr := midiHdr{
		lpData:         &buf[0],
		dwBufferLength: uint32(len(buf)),
	}
	size := unsafe.Sizeof(hdr)

	if r1, _, err := procMidiOutPrepareHeader.Call(uintptr(hmo), uintptr(unsafe.Pointer(&hdr)), size); r1 != 0 {
		return fmt.Errorf("midiOutPrepareHeader failed: %v", err)
	}
	if r1, _, err := procMidiOutLongMsg.Call(uintptr(hmo), uintptr(unsafe.Pointer(&hdr)), size); r1 != 0 {
		procMidiOutUnprepareHeader.Call(uintptr(hmo), uintptr(unsafe.Pointer(&hdr)), size)
		return fmt.Errorf("midiOutLongMsg failed: %v", err)
	}

	deadline := time.Now().Add(longMsgTimeout)
	for {
		r1, _, err := procMidiOutUnprepareHeader.Call(uintptr(hmo), uintptr(unsafe.Pointer(&hdr)), size)
		switch {
		case r1 == 0:
			return nil
		case r1 != MIDIERR_STILLPLAYING:
			return fmt.Errorf("midiOutUnprepareHeader failed: %v", err)
		case time.Now().After(deadline):
			return fmt.Errorf("system exclusive output did not complete within %s", longMsgTimeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// IsOpen reports whether h is open.
func (m *Transport) IsOpen(h contracts.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.open[h]
	return ok
}

// Stop closes every open device.
func (m *Transport) Stop() error {
	m.mu.Lock()
	open := m.open
	m.open = make(map[contracts.Handle]HMIDIOUT)
	m.mu.Unlock()

	var firstErr error
	for _, hmo := range open {
		if err := closeDevice(hmo); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.logger.Info("MIDI output transport stopped")
	return firstErr
}
