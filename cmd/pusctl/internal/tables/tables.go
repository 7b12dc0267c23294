// SPDX-License-Identifier: BSD-3-Clause

// Package tables loads the configuration tables the Auxiliary
// Configuration Check inspects (spec §4.13) from a YAML document, for
// offline validation by cmd/pusctl. The capability records
// (kind.CmdActions/RepActions/OutActions) a live deployment attaches to
// each row are code, not data — a loaded row always carries the zero
// capability record, which component.Actions.fill defaults to trivial
// successes. That is enough to exercise every structural and ordering
// check the table checks perform; it says nothing about runtime
// behavior, which only the Go source that registers the real actions can
// provide.
package tables

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cordet/pus/pkg/configcheck"
	"github.com/cordet/pus/pkg/kind"
)

// Triple is the YAML-friendly shape of kind.Triple.
type Triple struct {
	ServType     uint16 `yaml:"servType" mapstructure:"servType"`
	ServSubType  uint16 `yaml:"servSubType" mapstructure:"servSubType"`
	Discriminant uint16 `yaml:"discriminant" mapstructure:"discriminant"`
}

func (t Triple) toKind() kind.Triple {
	return kind.Triple{ServType: t.ServType, ServSubType: t.ServSubType, Discriminant: t.Discriminant}
}

// OutCmpRow is the YAML shape of kind.OutCmpRow.
type OutCmpRow struct {
	Triple       `yaml:",inline" mapstructure:",squash"`
	PacketLength int `yaml:"packetLength" mapstructure:"packetLength"`
}

// ServDescRow is the YAML shape of kind.ServDescRow.
type ServDescRow struct {
	ServType        uint16 `yaml:"servType" mapstructure:"servType"`
	ServSubType     uint16 `yaml:"servSubType" mapstructure:"servSubType"`
	MaxDiscriminant uint16 `yaml:"maxDiscriminant" mapstructure:"maxDiscriminant"`
}

// QueueSize is the YAML shape of configcheck.QueueSize.
type QueueSize struct {
	Name string `yaml:"name" mapstructure:"name"`
	Size int    `yaml:"size" mapstructure:"size"`
}

// EnableRule is one SetEnable directive applied to a fresh OutRegistry
// for the "registry" subcommand's preview (servSubType/discriminant 0
// means wildcard, matching outregistry.Registry.SetEnable).
type EnableRule struct {
	Triple `yaml:",inline" mapstructure:",squash"`
	On     bool `yaml:"on" mapstructure:"on"`
}

// Document is the full on-disk table file pusctl reads: every table the
// Auxiliary Configuration Check inspects, plus the enable directives a
// deployment would apply to OutRegistry at startup.
type Document struct {
	OutServices []ServDescRow `yaml:"outServices" mapstructure:"outServices"`
	OutCmpRows  []OutCmpRow   `yaml:"outComponents" mapstructure:"outComponents"`
	InCmdRows   []Triple      `yaml:"inCommands" mapstructure:"inCommands"`
	InRepRows   []Triple      `yaml:"inReports" mapstructure:"inReports"`
	QueueSizes  []QueueSize   `yaml:"queueSizes" mapstructure:"queueSizes"`
	EnableRules []EnableRule  `yaml:"enable" mapstructure:"enable"`
}

// Load reads and parses a Document from path.
func Load(path string) (*Document, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table file %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("parse table file %s: %w", path, err)
	}
	return &doc, nil
}

// OutServiceRows converts the document's service table to kind.ServDescRow.
func (d *Document) OutServiceRows() []kind.ServDescRow {
	rows := make([]kind.ServDescRow, len(d.OutServices))
	for i, s := range d.OutServices {
		rows[i] = kind.ServDescRow{ServType: s.ServType, ServSubType: s.ServSubType, MaxDiscriminant: s.MaxDiscriminant}
	}
	return rows
}

// OutComponentRows converts the document's OutFactory table to
// kind.OutCmpRow, with the zero (trivially-successful) OutActions.
func (d *Document) OutComponentRows() []kind.OutCmpRow {
	rows := make([]kind.OutCmpRow, len(d.OutCmpRows))
	for i, r := range d.OutCmpRows {
		rows[i] = kind.OutCmpRow{Triple: r.Triple.toKind(), PacketLength: r.PacketLength}
	}
	return rows
}

// InCommandRows converts the document's InFactory command table to
// kind.InCmdRow, with the zero CmdActions.
func (d *Document) InCommandRows() []kind.InCmdRow {
	rows := make([]kind.InCmdRow, len(d.InCmdRows))
	for i, t := range d.InCmdRows {
		rows[i] = kind.InCmdRow{Triple: t.toKind()}
	}
	return rows
}

// InReportRows converts the document's InFactory report table to
// kind.InRepRow, with the zero RepActions.
func (d *Document) InReportRows() []kind.InRepRow {
	rows := make([]kind.InRepRow, len(d.InRepRows))
	for i, t := range d.InRepRows {
		rows[i] = kind.InRepRow{Triple: t.toKind()}
	}
	return rows
}

// QueueSizeChecks converts the document's queue sizes to configcheck.QueueSize.
func (d *Document) QueueSizeChecks() []configcheck.QueueSize {
	sizes := make([]configcheck.QueueSize, len(d.QueueSizes))
	for i, q := range d.QueueSizes {
		sizes[i] = configcheck.QueueSize{Name: q.Name, Size: q.Size}
	}
	return sizes
}

// CheckConfig assembles the document's tables into a configcheck.Config.
func (d *Document) CheckConfig() configcheck.Config {
	return configcheck.Config{
		OutServices: d.OutServiceRows(),
		OutCmpRows:  d.OutComponentRows(),
		InCmdRows:   d.InCommandRows(),
		InRepRows:   d.InReportRows(),
		QueueSizes:  d.QueueSizeChecks(),
	}
}
