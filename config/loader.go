// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	appName        = "predictmarket"
	configFileName = "config.toml"
	stateDirName   = "state"
)

// DefaultHome is where the configuration lives when no home is given,
// $XDG_CONFIG_HOME/predictmarket.
func DefaultHome() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultStateHome holds runtime files such as the embedded database,
// $XDG_STATE_HOME/predictmarket.
func DefaultStateHome() string {
	return filepath.Join(xdg.StateHome, appName)
}

// HomeFlag is embedded by commands that read the configuration.
type HomeFlag struct {
	Home string `description:"Path to the home directory, defaults to $XDG_CONFIG_HOME/predictmarket" long:"home"`
}

// Loader reads and writes the configuration file of a home directory.
type Loader struct {
	home           string
	configFilePath string
}

func NewLoader(home string) *Loader {
	if len(home) == 0 {
		home = DefaultHome()
	}
	return &Loader{
		home:           home,
		configFilePath: filepath.Join(home, configFileName),
	}
}

func (l *Loader) Home() string {
	return l.home
}

func (l *Loader) ConfigFilePath() string {
	return l.configFilePath
}

// StateDir is the directory runtime files go to when the home was given
// explicitly. Otherwise the xdg state home is used.
func (l *Loader) StateDir(customHome bool) string {
	if customHome {
		return filepath.Join(l.home, stateDirName)
	}
	return DefaultStateHome()
}

func (l *Loader) ConfigExists() (bool, error) {
	_, err := os.Stat(l.configFilePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("couldn't verify file presence: %w", err)
}

// Get decodes the file over the defaults so settings missing from it keep
// their default value.
func (l *Loader) Get() (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(l.configFilePath, &cfg); err != nil {
		return nil, fmt.Errorf("couldn't read file at %s: %w", l.configFilePath, err)
	}
	return &cfg, nil
}

func (l *Loader) Save(cfg *Config) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return fmt.Errorf("couldn't encode configuration: %w", err)
	}
	if err := os.MkdirAll(l.home, 0o700); err != nil {
		return fmt.Errorf("couldn't create home %s: %w", l.home, err)
	}
	if err := os.WriteFile(l.configFilePath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("couldn't write file at %s: %w", l.configFilePath, err)
	}
	return nil
}

func (l *Loader) Remove() {
	_ = os.RemoveAll(l.configFilePath)
}
