/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/


package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/errors"
)

// File is the on-disk form of the configuration. Unset fields keep their
// defaults.
//
//	[registry]
//	buckets = 4096
//	recycle = false
//
//	[resolve]
//	include_builtins = true
//	max_unwrap = 4
//
//	[log]
//	level = "debug"
//	development = true
type File struct {
	Registry RegistrySection `toml:"registry" yaml:"registry"`
	Resolve  ResolveSection  `toml:"resolve" yaml:"resolve"`
	Log      LogSection      `toml:"log" yaml:"log"`
}

// RegistrySection configures the type registry and object headers.
type RegistrySection struct {
	Buckets *int  `toml:"buckets" yaml:"buckets"`
	Recycle *bool `toml:"recycle" yaml:"recycle"`
}

// ResolveSection configures identity resolution.
type ResolveSection struct {
	IncludeBuiltins *bool `toml:"include_builtins" yaml:"include_builtins"`
	MaxUnwrap       *int  `toml:"max_unwrap" yaml:"max_unwrap"`
	MapPreferElem   *bool `toml:"map_prefer_elem" yaml:"map_prefer_elem"`
}

// LogSection configures the logger built by File.Logger.
type LogSection struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "read "+path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return ParseTOML(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("unsupported config extension %q", ext).
			Build()
	}
}

// ParseTOML decodes a TOML configuration document.
func ParseTOML(data []byte) (*File, error) {
	var f File
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse toml")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("unknown keys: %v", keys).
			Build()
	}
	return &f, nil
}

// ParseYAML decodes a YAML configuration document.
func ParseYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse yaml")
	}
	return &f, nil
}

// Options converts the file into functional options.
func (f *File) Options() []Option {
	var opts []Option
	if f.Registry.Buckets != nil {
		opts = append(opts, WithBuckets(*f.Registry.Buckets))
	}
	if f.Registry.Recycle != nil {
		opts = append(opts, WithRecycle(*f.Registry.Recycle))
	}
	if f.Resolve.IncludeBuiltins != nil {
		opts = append(opts, WithIncludeBuiltins(*f.Resolve.IncludeBuiltins))
	}
	if f.Resolve.MaxUnwrap != nil {
		opts = append(opts, WithMaxUnwrap(*f.Resolve.MaxUnwrap))
	}
	if f.Resolve.MapPreferElem != nil {
		opts = append(opts, WithMapPreferElem(*f.Resolve.MapPreferElem))
	}
	return opts
}

// Config returns the apis.Config described by the file.
func (f *File) Config() apis.Config {
	return NewConfig(f.Options()...)
}

// Logger builds a zap logger from the [log] section. An empty level
// yields a no-op logger.
func (f *File) Logger() (*zap.Logger, error) {
	if f.Log.Level == "" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(f.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "log level")
	}
	zc := zap.NewProductionConfig()
	if f.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return l, nil
}
