// mac-sched-harness drives a CarrierScheduler instance through a fixed
// set of scenarios, replaying the same traffic shapes used to seed
// the test suite, and prints the resulting allocation outcomes.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/ransys/macsched/internal/metrics"
	"github.com/ransys/macsched/internal/sched"
	"github.com/ransys/macsched/internal/trace"
)

var (
	pinCore   int
	tracePath string
	nofSlots  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mac-sched-harness",
		Short: "Replay scheduler scenarios against a single carrier",
		RunE:  runScenarios,
	}
	rootCmd.Flags().IntVar(&pinCore, "pin-core", -1, "CPU core to pin the driving goroutine to (-1 disables pinning)")
	rootCmd.Flags().StringVar(&tracePath, "trace-db", "", "path to a SQLite file recording every admission decision (disabled if empty)")
	rootCmd.Flags().IntVar(&nofSlots, "slots", 30, "number of slots to advance through")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenarios(cmd *cobra.Command, args []string) error {
	if pinCore >= 0 {
		pinToCore(pinCore)
	}

	var sink *trace.Sink
	if tracePath != "" {
		var err error
		sink, err = trace.Open(tracePath)
		if err != nil {
			return fmt.Errorf("harness: %w", err)
		}
		defer sink.Close()
	}

	reg := metrics.New("harness")

	cell := sched.CellConfig{NofPRB: 52, TDDULDLPattern: sched.AllDL(10)}
	bwp := sched.BWPParams{
		BWPID: 0, StartRB: 0, RBWidth: 52,
		Coresets: []sched.CoresetConfig{{ID: 0, NumCCE: 16}},
		SearchSpaces: []sched.SearchSpaceConfig{
			{ID: 0, CoresetID: 0, Common: true, CandidateCounts: [5]int{4, 2, 1, 0, 0}},
			{ID: 1, CoresetID: 0, Common: false, CandidateCounts: [5]int{0, 4, 2, 1, 0}},
		},
		RARSearchSpaceID: 0,
	}

	carrier := sched.NewCarrierScheduler()
	carrier.CellCfg(sched.CellConfigInput{Cell: cell, BWPs: []sched.BWPParams{bwp}})

	const rnti = uint16(0x4601)
	if err := carrier.UECfg(sched.UEConfigInput{
		RNTI: rnti, ActiveBWPID: 0,
		SearchSpaces: bwp.SearchSpaces,
		MaxHARQTx:    4,
	}); err != nil {
		return fmt.Errorf("harness: %w", err)
	}

	for slot := uint32(0); slot < uint32(nofSlots); slot++ {
		tti := sched.SlotPoint(slot)
		carrier.NewTTI(tti)

		if slot == 0 {
			res := carrier.DLRachInfo(0, sched.RARRequest{
				RARNTI: 0x0011, NofGrants: 1,
				PRBs: sched.Interval{Start: 0, Stop: 4}, AggrIdx: 2,
			})
			reg.ObserveAlloc("rar", res.String())
			logDecision(sink, slot, rnti, "rar", res)
		}

		if slot == 8 {
			res, err := carrier.AllocPDSCH(0, rnti, tti, tti, tti.Add(4), sched.Interval{Start: 8, Stop: 12})
			if err != nil {
				return fmt.Errorf("harness: %w", err)
			}
			reg.ObserveAlloc("pdsch", res.String())
			logDecision(sink, slot, rnti, "pdsch", res)
		}
	}

	fmt.Printf("replayed %d slots\n", nofSlots)
	return nil
}

func logDecision(sink *trace.Sink, slot uint32, rnti uint16, channel string, res sched.AllocResult) {
	fmt.Printf("slot %d %s rnti=0x%x: %s\n", slot, channel, rnti, res)
	if sink == nil {
		return
	}
	_ = sink.Write(trace.Record{Slot: slot, RNTI: rnti, Channel: channel, Result: res.String()})
}

// pinToCore locks the current goroutine to an OS thread and binds it
// to a single CPU core via sched_setaffinity, trading portability for
// predictable cache behaviour during a scenario replay.
func pinToCore(core int) {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	_ = unix.SchedSetaffinity(0, &set)
}
