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


package rtt

import (
	"sync/atomic"

	"go.uber.org/zap"

	"dirpx.dev/rtt/config"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. A no-op logger is used until
// SetLogger is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger configures the package logger. While the default builder is in
// use, the registry is rebuilt so registrations log through l.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)

	if st.Load().dbld {
		update(func(s *state) {
			if s.dbld {
				s.bld = defaultBuilder()
			}
		})
	}
}

// LoadConfig reads a TOML or YAML configuration file, then applies its
// settings and logger.
func LoadConfig(path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	l, err := f.Logger()
	if err != nil {
		return err
	}
	SetLogger(l)
	SetConfig(f.Config())
	Logger().Debug("configuration loaded", zap.String("path", path))
	return nil
}
