package client

import (
	"io"
	"slices"

	"github.com/danmuck/orwellctl/internal/config"
	"github.com/danmuck/orwellctl/internal/device"
	"go.uber.org/multierr"
)

type deviceSet struct {
	registry *device.Registry
	closers  []io.Closer
}

func (d *deviceSet) Close() error {
	var err error
	for _, c := range d.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// buildDevices registers every configured source. A joystick-only setup
// without any usable joystick falls back to the console keyboard.
func (s *Service) buildDevices() (*deviceSet, error) {
	set := &deviceSet{registry: device.NewRegistry()}
	wantConsole := slices.Contains(s.cfg.Devices, config.DeviceConsole) ||
		slices.Contains(s.cfg.Devices, config.DeviceKeyboard)

	if slices.Contains(s.cfg.Devices, config.DeviceJoystick) {
		found, err := s.openJoysticks(set)
		if err != nil {
			return nil, multierr.Append(err, set.Close())
		}
		if found == 0 && !wantConsole {
			s.log.Warn().Msg("client.Service.devices no joystick found, using console keyboard")
			wantConsole = true
		}
	}

	if wantConsole {
		console := device.NewConsole(s.log)
		console.Start(s.stdin)
		if err := set.registry.Register(device.NewKeyboard("keyboard", console)); err != nil {
			return nil, multierr.Append(err, set.Close())
		}
		s.log.Info().Msg("client.Service.devices console keyboard: l/r wheels, 1/2 weapons, p ping")
	}
	return set, nil
}

func (s *Service) openJoysticks(set *deviceSet) (int, error) {
	paths := s.cfg.Joysticks
	if len(paths) == 0 {
		scanned, err := s.scan()
		if err != nil {
			return 0, err
		}
		paths = scanned
	}
	if len(paths) > 1 {
		s.log.Warn().Int("count", len(paths)).Msg("client.Service.devices several joysticks detected")
	}

	found := 0
	for _, path := range paths {
		reader, err := s.open(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("client.Service.devices joystick skipped")
			continue
		}
		src, err := set.registry.GetOrCreate("joystick:"+reader.Name(), func() (device.Source, error) {
			return device.NewJoystick(reader, s.cfg.Joystick())
		})
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Str("name", reader.Name()).Msg("client.Service.devices joystick skipped")
			_ = reader.Close()
			continue
		}
		set.closers = append(set.closers, reader)
		found++
		s.log.Info().Str("path", path).Str("device", src.ID()).Msg("client.Service.devices joystick ready")
	}
	return found, nil
}
