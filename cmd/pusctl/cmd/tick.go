// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cordet/pus/cmd/pusctl/internal/tables"
	"github.com/cordet/pus/pkg/framework"
	"github.com/cordet/pus/pkg/infactory"
	"github.com/cordet/pus/pkg/inloader"
	"github.com/cordet/pus/pkg/inmanager"
	"github.com/cordet/pus/pkg/outfactory"
	"github.com/cordet/pus/pkg/outloader"
	"github.com/cordet/pus/pkg/outmanager"
	"github.com/cordet/pus/pkg/outregistry"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/stream"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Dry-run a single scheduler tick against a table file",
	Long: `tick wires a throwaway InStream/OutStream/InFactory/OutFactory/
OutRegistry/InManager/OutManager pipeline from the --tables YAML file,
brings it up through the same Auxiliary Configuration Check a live
Framework runs, runs exactly one scheduler tick with no input traffic,
and tears it back down. It never touches a transport: the InStream's
Source always reports no data and the OutStream's Sink discards
anything it is asked to send.`,
	RunE: runTick,
}

// noSource always reports no data; runTick's pipeline never receives
// transport input.
type noSource struct{}

func (noSource) Poll(ctx context.Context) ([]byte, bool, error) { return nil, false, nil }

// discardSink accepts every send, used to observe a tick without a real
// transport.
type discardSink struct{ sent int }

func (d *discardSink) Send(ctx context.Context, dest uint16, buf []byte) error {
	d.sent++
	return nil
}

func runTick(cmd *cobra.Command, args []string) error {
	path, err := tablesPath()
	if err != nil {
		return err
	}
	doc, err := tables.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	inStream, err := stream.New("pusctl-in", 16, noSource{}, pckt.NewDefault)
	if err != nil {
		return fmt.Errorf("build in-stream: %w", err)
	}
	sink := &discardSink{}
	outStream, err := stream.New("pusctl-out", 16, sink)
	if err != nil {
		return fmt.Errorf("build out-stream: %w", err)
	}

	inFac, err := infactory.New(8, 8, doc.InCommandRows(), doc.InReportRows())
	if err != nil {
		return fmt.Errorf("build in-factory: %w", err)
	}
	outFac, err := outfactory.New(8, doc.OutComponentRows())
	if err != nil {
		return fmt.Errorf("build out-factory: %w", err)
	}
	reg, err := outregistry.New(doc.OutServiceRows(), 16)
	if err != nil {
		return fmt.Errorf("build out-registry: %w", err)
	}
	for _, rule := range doc.EnableRules {
		reg.SetEnable(rule.ServType, rule.ServSubType, rule.Discriminant, rule.On)
	}

	inMgr, err := inmanager.New("pusctl-inmgr", 8, inFac, inFac, nil)
	if err != nil {
		return fmt.Errorf("build in-manager: %w", err)
	}
	outMgr, err := outmanager.New("pusctl-outmgr", 8, outFac, reg)
	if err != nil {
		return fmt.Errorf("build out-manager: %w", err)
	}
	inLdr, err := inloader.New("pusctl-inldr", inStream, nil, inFac, []inloader.ManagerLoad{inMgr})
	if err != nil {
		return fmt.Errorf("build in-loader: %w", err)
	}
	outLdr, err := outloader.New("pusctl-outldr", []outloader.ManagerLoad{outMgr})
	if err != nil {
		return fmt.Errorf("build out-loader: %w", err)
	}

	f, err := framework.New("pusctl-tick",
		framework.WithConfigCheck(doc.CheckConfig()),
		framework.WithInStreams(inStream),
		framework.WithOutStreams(outStream),
		framework.WithInLoader(inLdr),
		framework.WithInManagers(inMgr),
		framework.WithOutLoader(outLdr),
		framework.WithOutManagers(outMgr),
		framework.WithOutRegistry(reg),
	)
	if err != nil {
		return fmt.Errorf("build framework: %w", err)
	}

	ctx := cmd.Context()
	if o := f.Init(ctx); !o.IsSuccess() {
		return fmt.Errorf("framework init failed: %s", o.Code)
	}
	if o := f.Configure(ctx); !o.IsSuccess() {
		if lc := f.LastCheck(); lc.Failed {
			fmt.Printf("FAIL: table %s: %v\n", lc.Table, lc.Err)
			os.Exit(1)
		}
		return fmt.Errorf("framework configure failed: %s", o.Code)
	}

	if err := f.DryRunTick(ctx); err != nil {
		return fmt.Errorf("dry-run tick: %w", err)
	}

	fmt.Println("OK: one scheduler tick ran to completion")
	fmt.Printf("  outbound packets sent to sink: %d\n", sink.sent)
	fmt.Printf("  in-factory free command/report slots: %d/%d\n", inFac.NCmdFree(), inFac.NRepFree())
	fmt.Printf("  out-factory free slots: %d\n", outFac.NFree())

	if err := f.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
