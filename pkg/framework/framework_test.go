// SPDX-License-Identifier: BSD-3-Clause

package framework

import (
	"context"
	"testing"
	"time"

	"github.com/cordet/pus/pkg/configcheck"
	"github.com/cordet/pus/pkg/inloader"
	"github.com/cordet/pus/pkg/infactory"
	"github.com/cordet/pus/pkg/inmanager"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outfactory"
	"github.com/cordet/pus/pkg/outloader"
	"github.com/cordet/pus/pkg/outmanager"
	"github.com/cordet/pus/pkg/outregistry"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct{}

func (fakeSource) Poll(ctx context.Context) ([]byte, bool, error) { return nil, false, nil }

type fakeSink struct{}

func (fakeSink) Send(ctx context.Context, dest uint16, buf []byte) error { return nil }

func cmdRows() []kind.InCmdRow {
	return []kind.InCmdRow{{Triple: kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}}}
}

func repRows() []kind.InRepRow {
	return []kind.InRepRow{{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}}}
}

func outRows() []kind.OutCmpRow {
	return []kind.OutCmpRow{{Triple: kind.Triple{ServType: 17, ServSubType: 2, Discriminant: 0}, PacketLength: 16}}
}

func outServices() []kind.ServDescRow {
	return []kind.ServDescRow{{ServType: 17, ServSubType: 2, MaxDiscriminant: 0}}
}

// buildPipeline wires one of every singleton Framework supervises, using
// real constructors throughout (no fakes below the stream boundary).
func buildPipeline(t *testing.T) (*stream.InStream, *stream.OutStream, *inloader.Loader, *inmanager.Manager, *outloader.Loader, *outmanager.Manager, *outregistry.Registry) {
	t.Helper()

	inStream, err := stream.New("in", 8, fakeSource{}, pckt.NewDefault)
	require.NoError(t, err)
	outStream, err := stream.New("out", 8, fakeSink{})
	require.NoError(t, err)

	inFac, err := infactory.New(2, 2, cmdRows(), repRows())
	require.NoError(t, err)
	outFac, err := outfactory.New(2, outRows())
	require.NoError(t, err)

	reg, err := outregistry.New(outServices(), 4)
	require.NoError(t, err)
	reg.SetEnable(17, 2, 0, true)

	inMgr, err := inmanager.New("inmgr", 4, inFac, inFac, nil)
	require.NoError(t, err)
	outMgr, err := outmanager.New("outmgr", 4, outFac, reg)
	require.NoError(t, err)

	inLdr, err := inloader.New("inldr", inStream, nil, inFac, []inloader.ManagerLoad{inMgr})
	require.NoError(t, err)
	outLdr, err := outloader.New("outldr", []outloader.ManagerLoad{outMgr})
	require.NoError(t, err)

	return inStream, outStream, inLdr, inMgr, outLdr, outMgr, reg
}

func validCheckConfig() configcheck.Config {
	return configcheck.Config{
		OutServices: outServices(),
		OutCmpRows:  outRows(),
		InCmdRows:   cmdRows(),
		InRepRows:   repRows(),
		QueueSizes:  []configcheck.QueueSize{{Name: "inStream", Size: 8}, {Name: "outStream", Size: 8}},
	}
}

func TestFrameworkRunBringsUpAndTicks(t *testing.T) {
	inStream, outStream, inLdr, inMgr, outLdr, outMgr, reg := buildPipeline(t)

	var ticks int
	f, err := New("fw",
		WithTickInterval(time.Millisecond),
		WithConfigCheck(validCheckConfig()),
		WithInStreams(inStream),
		WithOutStreams(outStream),
		WithInLoader(inLdr),
		WithInManagers(inMgr),
		WithOutLoader(outLdr),
		WithOutManagers(outMgr),
		WithOutRegistry(reg),
		WithTickHandler(func(context.Context) { ticks++ }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Run(ctx))
	assert.True(t, inStream.IsConfigured())
	assert.True(t, outMgr.IsConfigured())

	require.Eventually(t, func() bool { return ticks > 0 }, time.Second, time.Millisecond)

	require.NoError(t, f.Shutdown(context.Background()))
}

func TestFrameworkRunFailsConfigCheck(t *testing.T) {
	inStream, outStream, inLdr, inMgr, outLdr, outMgr, reg := buildPipeline(t)

	badCfg := validCheckConfig()
	badCfg.OutServices = nil

	f, err := New("fw",
		WithConfigCheck(badCfg),
		WithInStreams(inStream),
		WithOutStreams(outStream),
		WithInLoader(inLdr),
		WithInManagers(inMgr),
		WithOutLoader(outLdr),
		WithOutManagers(outMgr),
		WithOutRegistry(reg),
	)
	require.NoError(t, err)

	err = f.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, f.IsConfigured())
	assert.Equal(t, configcheck.TableOutRegistry, f.LastCheck().Table)
}

func TestFrameworkShutdownAfterRunReleasesSingletons(t *testing.T) {
	inStream, outStream, inLdr, inMgr, outLdr, outMgr, reg := buildPipeline(t)

	f, err := New("fw",
		WithTickInterval(time.Millisecond),
		WithConfigCheck(validCheckConfig()),
		WithInStreams(inStream),
		WithOutStreams(outStream),
		WithInLoader(inLdr),
		WithInManagers(inMgr),
		WithOutLoader(outLdr),
		WithOutManagers(outMgr),
		WithOutRegistry(reg),
	)
	require.NoError(t, err)

	require.NoError(t, f.Run(context.Background()))
	require.NoError(t, f.Shutdown(context.Background()))
	assert.False(t, inMgr.IsConfigured())
	assert.False(t, outMgr.IsConfigured())
}
