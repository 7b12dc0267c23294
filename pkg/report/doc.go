// SPDX-License-Identifier: BSD-3-Clause

// Package report implements the PUS service-1 (request verification)
// reporting plane described in spec §4.5, §4.9 and §7. See report.go for
// the Kind/Event/Sink types and ShouldReport's ack-level gating.
package report
