// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Unset all TELEPORT vars to ensure clean test environment
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "TELEPORT_") || strings.HasPrefix(e, "LOG_LEVEL=") {
			kv := strings.SplitN(e, "=", 2)
			if err := os.Unsetenv(kv[0]); err != nil {
				panic("failed to unset env: " + err.Error())
			}
		}
	}

	os.Exit(m.Run())
}
