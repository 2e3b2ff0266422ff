// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, integration).
type Test mg.Namespace

// All runs all tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs the tests in short mode, which skips building the binary.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Integration runs the tests that build and drive the folio binary.
func (Test) Integration() error {
	return sh.RunV(binGo, "test", "-v", cmdDir+"/...")
}
