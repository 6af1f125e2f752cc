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


package config_test

import (
	"testing"

	"dirpx.dev/rtt/config"
)

func TestDefaultConfigValues(t *testing.T) {
	got := config.DefaultConfig()

	if got.Buckets != config.DefaultBuckets {
		t.Fatalf("Buckets = %d, want %d", got.Buckets, config.DefaultBuckets)
	}
	if got.IncludeBuiltins != config.DefaultIncludeBuiltins {
		t.Fatalf("IncludeBuiltins = %v, want %v", got.IncludeBuiltins, config.DefaultIncludeBuiltins)
	}
	if got.MaxUnwrap != config.DefaultMaxUnwrap {
		t.Fatalf("MaxUnwrap = %d, want %d", got.MaxUnwrap, config.DefaultMaxUnwrap)
	}
	if got.MapPreferElem != config.DefaultMapPreferElem {
		t.Fatalf("MapPreferElem = %v, want %v", got.MapPreferElem, config.DefaultMapPreferElem)
	}
	if got.Recycle != config.DefaultRecycle {
		t.Fatalf("Recycle = %v, want %v", got.Recycle, config.DefaultRecycle)
	}
}

func TestNewConfig_NoOptions_EqualsDefault(t *testing.T) {
	def := config.DefaultConfig()
	got := config.NewConfig()
	if got != def {
		t.Fatalf("NewConfig() = %+v, want default %+v", got, def)
	}
}

func TestWithBuckets(t *testing.T) {
	c := config.NewConfig(config.WithBuckets(64))
	if c.Buckets != 64 {
		t.Fatalf("Buckets = %d, want 64", c.Buckets)
	}

	c2 := config.NewConfig(config.WithBuckets(0))
	if c2.Buckets != config.DefaultBuckets {
		t.Fatalf("Buckets = %d, want default %d", c2.Buckets, config.DefaultBuckets)
	}
}

func TestWithIncludeBuiltins(t *testing.T) {
	c := config.NewConfig(config.WithIncludeBuiltins(false))
	if c.IncludeBuiltins {
		t.Fatalf("IncludeBuiltins = %v, want false", c.IncludeBuiltins)
	}

	c2 := config.NewConfig(config.WithIncludeBuiltins(true))
	if !c2.IncludeBuiltins {
		t.Fatalf("IncludeBuiltins = %v, want true", c2.IncludeBuiltins)
	}
}

func TestWithRecycle(t *testing.T) {
	c := config.NewConfig(config.WithRecycle(false))
	if c.Recycle {
		t.Fatal("Recycle = true, want false")
	}
}

func TestWithMaxUnwrap_Negative_ResetsToDefault(t *testing.T) {
	c := config.NewConfig(config.WithMaxUnwrap(-1))
	if c.MaxUnwrap != config.DefaultMaxUnwrap {
		t.Fatalf("MaxUnwrap = %d, want default %d", c.MaxUnwrap, config.DefaultMaxUnwrap)
	}
}

func TestOptionsOrder_LastWins(t *testing.T) {
	c := config.NewConfig(
		config.WithIncludeBuiltins(false),
		config.WithIncludeBuiltins(true),
		config.WithMaxUnwrap(2),
		config.WithMaxUnwrap(5),
		config.WithBuckets(16),
		config.WithBuckets(32),
	)

	if !c.IncludeBuiltins {
		t.Errorf("IncludeBuiltins = %v, want true (last option wins)", c.IncludeBuiltins)
	}
	if c.MaxUnwrap != 5 {
		t.Errorf("MaxUnwrap = %d, want 5 (last option wins)", c.MaxUnwrap)
	}
	if c.Buckets != 32 {
		t.Errorf("Buckets = %d, want 32 (last option wins)", c.Buckets)
	}
}
