// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config holds the playback settings of a controller and the process
// configuration of the teleport CLI.
//
// Precedence (highest wins):
//  1. Environment variables (TELEPORT_*)
//  2. YAML config file
//  3. Defaults
//
// Settings built with New and the With* options are immutable values; the
// Holder swaps whole AppConfig values on hot reload.
package config
