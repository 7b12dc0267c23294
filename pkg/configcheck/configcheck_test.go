// SPDX-License-Identifier: BSD-3-Clause

package configcheck

import (
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		OutServices: []kind.ServDescRow{{ServType: 17, ServSubType: 2, MaxDiscriminant: 0}},
		OutCmpRows:  []kind.OutCmpRow{{Triple: kind.Triple{ServType: 17, ServSubType: 2, Discriminant: 0}, PacketLength: 16}},
		InCmdRows:   []kind.InCmdRow{{Triple: kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}}},
		InRepRows:   []kind.InRepRow{{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}}},
		QueueSizes:  []QueueSize{{Name: "inStream", Size: 8}, {Name: "outStream", Size: 8}},
	}
}

func TestCheckPassesOnValidConfig(t *testing.T) {
	r := Check(validConfig())
	assert.False(t, r.Failed)
	assert.NoError(t, r.Err)
}

func TestCheckFailsOnEmptyOutRegistry(t *testing.T) {
	cfg := validConfig()
	cfg.OutServices = nil
	r := Check(cfg)
	assert.True(t, r.Failed)
	assert.Equal(t, TableOutRegistry, r.Table)
}

func TestCheckFailsOnOutFactoryRowMissingFromRegistry(t *testing.T) {
	cfg := validConfig()
	cfg.OutCmpRows = []kind.OutCmpRow{{Triple: kind.Triple{ServType: 99, ServSubType: 1, Discriminant: 0}, PacketLength: 16}}
	r := Check(cfg)
	assert.True(t, r.Failed)
	assert.Equal(t, TableOutFactory, r.Table)
}

func TestCheckFailsOnNonPositivePacketLength(t *testing.T) {
	cfg := validConfig()
	cfg.OutCmpRows = []kind.OutCmpRow{{Triple: kind.Triple{ServType: 17, ServSubType: 2, Discriminant: 0}, PacketLength: 0}}
	r := Check(cfg)
	assert.True(t, r.Failed)
	assert.Equal(t, TableOutFactory, r.Table)
}

func TestCheckFailsOnEmptyInCmdTable(t *testing.T) {
	cfg := validConfig()
	cfg.InCmdRows = nil
	r := Check(cfg)
	assert.True(t, r.Failed)
	assert.Equal(t, TableInFactoryInCmd, r.Table)
}

func TestCheckFailsOnZeroQueueSize(t *testing.T) {
	cfg := validConfig()
	cfg.QueueSizes = []QueueSize{{Name: "inStream", Size: 0}}
	r := Check(cfg)
	assert.True(t, r.Failed)
	assert.Equal(t, TableQueueSizes, r.Table)
}
