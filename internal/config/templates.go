package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders DefaultConfig as a TOML file.
func Template() (string, error) {
	data, err := toml.Marshal(toFile(DefaultConfig()))
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(data), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

func toFile(c Config) fileConfig {
	return fileConfig{
		Name:             c.Name,
		Connection:       c.Connection,
		PushAddress:      c.PushAddress,
		SubscribeAddress: c.SubscribeAddress,
		ReplyAddress:     c.ReplyAddress,
		Devices:          c.Devices,
		Joysticks:        c.Joysticks,
		DeadZone:         c.DeadZone,
		Angle:            c.Angle,
		Precision:        c.Precision,
		PollInterval:     c.PollInterval.String(),
		HandshakeTimeout: c.HandshakeTimeout.String(),
		PingTimeout:      c.PingTimeout.String(),
		RequestTimeout:   c.RequestTimeout.String(),
		InboxSize:        c.InboxSize,
		StatusAddr:       c.StatusAddr,
		CORSOrigins:      c.CORSOrigins,
		TLS: fileTLS{
			Enabled:            c.TLS.Enabled,
			CAFile:             c.TLS.CAFile,
			ServerName:         c.TLS.ServerName,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		},
	}
}
