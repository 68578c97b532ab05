//go:build linux

package device

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const jsNameLen = 128

// jsiocgname is JSIOCGNAME(len): _IOC(_IOC_READ, 'j', 0x13, len).
const jsiocgname = (2 << 30) | (jsNameLen << 16) | ('j' << 8) | 0x13

// JSDevice reads a /dev/input/js* device in the background.
type JSDevice struct {
	axisState
	file *os.File
	name string
	log  zerolog.Logger
	done chan struct{}
}

var _ AxisReader = (*JSDevice)(nil)

// ScanJoysticks lists joystick device nodes.
func ScanJoysticks() ([]string, error) {
	return filepath.Glob("/dev/input/js*")
}

func OpenJoystick(path string, logger zerolog.Logger) (*JSDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	name, err := joystickName(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	j := &JSDevice{
		file: f,
		name: name,
		log:  logger,
		done: make(chan struct{}),
	}
	go j.read()
	logger.Info().Str("path", path).Str("name", name).Msg("device.JSDevice.open")
	return j, nil
}

func (j *JSDevice) Name() string { return j.name }

func (j *JSDevice) Close() error {
	err := j.file.Close()
	<-j.done
	return err
}

func (j *JSDevice) read() {
	defer close(j.done)
	buf := make([]byte, jsEventSize)
	for {
		if _, err := io.ReadFull(j.file, buf); err != nil {
			if !errors.Is(err, os.ErrClosed) {
				j.log.Warn().Err(err).Str("name", j.name).Msg("device.JSDevice.read stopped")
			}
			return
		}
		ev, err := decodeJSEvent(buf)
		if err != nil {
			continue
		}
		j.apply(ev)
	}
}

func joystickName(f *os.File) (string, error) {
	buf := make([]byte, jsNameLen)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		f.Fd(),
		uintptr(jsiocgname),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if errno != 0 {
		return "", errno
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}
