// SPDX-License-Identifier: BSD-3-Clause

package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordet/pus/pkg/configcheck"
)

const sampleYAML = `
outServices:
  - servType: 17
    servSubType: 2
    maxDiscriminant: 0
outComponents:
  - servType: 17
    servSubType: 2
    discriminant: 0
    packetLength: 16
inCommands:
  - servType: 3
    servSubType: 1
    discriminant: 0
inReports:
  - servType: 3
    servSubType: 25
    discriminant: 0
queueSizes:
  - name: inStream
    size: 8
  - name: outStream
    size: 8
enable:
  - servType: 17
    servSubType: 2
    discriminant: 0
    on: true
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadParsesEveryTable(t *testing.T) {
	doc, err := Load(writeSample(t))
	require.NoError(t, err)

	assert.Len(t, doc.OutServices, 1)
	assert.Len(t, doc.OutCmpRows, 1)
	assert.Len(t, doc.InCmdRows, 1)
	assert.Len(t, doc.InRepRows, 1)
	assert.Len(t, doc.QueueSizes, 2)
	assert.Len(t, doc.EnableRules, 1)
	assert.True(t, doc.EnableRules[0].On)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCheckConfigPassesAuxiliaryCheck(t *testing.T) {
	doc, err := Load(writeSample(t))
	require.NoError(t, err)

	result := configcheck.Check(doc.CheckConfig())
	assert.False(t, result.Failed)
}

func TestCheckConfigCatchesEmptyOutServiceTable(t *testing.T) {
	doc, err := Load(writeSample(t))
	require.NoError(t, err)

	doc.OutServices = nil // an empty service table fails the OutRegistry check first

	result := configcheck.Check(doc.CheckConfig())
	assert.True(t, result.Failed)
	assert.Equal(t, configcheck.TableOutRegistry, result.Table)
}
