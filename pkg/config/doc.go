// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package config holds server settings read from a TOML file.
package config
