// Package config holds the static TOML configuration shared by all services
// plus the JSON-backed runtime flag registry (flags.go).
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

type CommonConf struct {
	Debug     bool   `toml:"debug"`
	FlagsPath string `toml:"flags_path"`
}

type DatabaseConf struct {
	DSN string `toml:"dsn"`
}

type EmailConf struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type PushConf struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Key      string `toml:"key"`
}

type configStruct struct {
	Common   CommonConf   `toml:"common"`
	Database DatabaseConf `toml:"database"`
	Email    EmailConf    `toml:"email"`
	Push     PushConf     `toml:"push"`
}

var (
	Common = CommonConf{
		FlagsPath: "./flags.json",
	}
	Database DatabaseConf
	Email    EmailConf
	Push     PushConf
)

func Load(path string) error {
	var c configStruct
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return fmt.Errorf("couldn't decode config: %w", err)
	}
	if len(md.Undecoded()) > 0 {
		slog.Warn("Undecoded config keys", slog.Any("keys", md.Undecoded()))
	}

	Common = c.Common
	Database = c.Database
	Email = c.Email
	Push = c.Push
	return nil
}

// Save writes the current static config back out, mostly for formatting
// newly initialized config files.
func Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(configStruct{
		Common:   Common,
		Database: Database,
		Email:    Email,
		Push:     Push,
	})
}
