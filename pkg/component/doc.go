// SPDX-License-Identifier: BSD-3-Clause

// Package component implements the BaseComponent lifecycle (spec §4.1)
// shared by every managed component in the pipeline. See component.go for
// the state diagram and Actions for the per-variant capability record.
package component
