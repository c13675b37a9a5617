// ════════════════════════════════════════════════════════════════════════════════════════════════
// O(1) Teaching-Kernel Scheduler - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: O(1) Teaching-Kernel Scheduler
// Component: Main Entry Point & System Orchestration
//
// Description:
//   System orchestration with phased initialization and clean separation of concerns.
//   Workload Load → Scheduler Construction → Dispatch → Trace Drain & Persistence
//
// Architecture:
//   - Phase 0: Workload manifest load and per-CPU scheduler construction
//   - Phase 1: Pinned dispatch loops + trace harvesting
//   - Phase 2: Graceful drain, trace flush, run manifest
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/constants"
	"main/control"
	"main/debug"
	"main/dispatch"
	"main/sched"
	"main/schedtrace"
	"main/utils"

	"github.com/sugawarayuuta/sonnet"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WORKLOAD MANIFEST
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// WorkloadThread describes one simulated thread in the workload manifest.
type WorkloadThread struct {
	Name       string `json:"name"`       // Label for trace analysis
	CPU        int    `json:"cpu"`        // Home core (threads never migrate)
	Priority   int32  `json:"priority"`   // Level, 0 = highest
	Work       uint32 `json:"work"`       // Total ticks of simulated work
	YieldEvery uint8  `json:"yieldEvery"` // Voluntary yield interval, 0 = never
}

// WorkloadManifest is the JSON workload description loaded at startup.
type WorkloadManifest struct {
	Threads []WorkloadThread `json:"threads"`
}

// workloadPath is the manifest consulted before falling back to the
// generated default workload.
const workloadPath = "workload.json"

// loadWorkload reads the JSON manifest, or synthesizes a default workload
// when none exists: a spread of priorities and yield patterns per core,
// scrambled with Mix64 so levels and cores decorrelate.
func loadWorkload() WorkloadManifest {
	data, err := os.ReadFile(workloadPath)
	if err == nil {
		var m WorkloadManifest
		if err := sonnet.Unmarshal(data, &m); err == nil && len(m.Threads) > 0 {
			debug.DropMessage("WORKLOAD", utils.Itoa(len(m.Threads))+" threads from "+workloadPath)
			return m
		}
		debug.DropError("WORKLOAD", err)
	}

	const perCPU = 8
	m := WorkloadManifest{}
	for cpu := 0; cpu < constants.NumCPUs; cpu++ {
		for i := 0; i < perCPU; i++ {
			seed := utils.Mix64(uint64(cpu)<<32 | uint64(i))
			m.Threads = append(m.Threads, WorkloadThread{
				Name:       "t" + utils.Itoa(cpu) + "." + utils.Itoa(i),
				CPU:        cpu,
				Priority:   int32(seed % constants.NumPriorities),
				Work:       200 + uint32(seed>>8)%800,
				YieldEvery: uint8(seed>>24) % 16,
			})
		}
	}
	debug.DropMessage("WORKLOAD", utils.Itoa(len(m.Threads))+" generated threads")
	return m
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// main orchestrates the complete run in distinct phases.
func main() {
	// PHASE 0: Workload load and scheduler construction
	debug.DropMessage("INIT", "Constructing per-CPU scheduler state")

	workload := loadWorkload()
	scheduler := sched.NewDefault()

	harvester, err := schedtrace.NewHarvester(constants.TraceDatabasePath, constants.NumCPUs)
	if err != nil {
		debug.DropError("TRACE_DB", err)
		os.Exit(1)
	}

	// Seed every thread before any dispatch loop exists; the per-CPU rings
	// see their spawn records from this goroutine, then ownership of each
	// ring's producer side passes to that CPU's dispatch loop.
	seeded := 0
	for i := range workload.Threads {
		t := &workload.Threads[i]
		if t.CPU < 0 || t.CPU >= constants.NumCPUs || t.Work == 0 {
			debug.DropMessage("SKIP", t.Name+": bad cpu or empty work")
			continue
		}
		cpu := scheduler.CPU(t.CPU)
		payload := dispatch.PackWorkload(uint16(i), t.Work, t.YieldEvery)
		h, err := cpu.Spawn(t.Priority, payload)
		if err != nil {
			debug.DropError("SPAWN "+t.Name, err)
			continue
		}
		ev := schedtrace.Event{
			Meta: schedtrace.Pack(schedtrace.KindSpawn, uint8(t.CPU), t.Priority, uint32(h)),
			Data: payload,
		}
		if !harvester.Ring(t.CPU).Push(ev.Bytes()) {
			harvester.CountDrop()
		}
		seeded++
	}
	debug.DropMessage("READY", utils.Itoa(seeded)+" threads on "+
		utils.Itoa(constants.NumCPUs)+" cpus")

	setupSignalHandling()

	// PHASE 1: Dispatch + trace harvesting
	control.ForceHot()
	harvester.Start()

	done := make([]chan struct{}, constants.NumCPUs)
	for i := 0; i < constants.NumCPUs; i++ {
		done[i] = make(chan struct{})
		dispatch.Run(scheduler.CPU(i), harvester.Ring(i),
			time.Duration(constants.TickNanos), harvester.CountDrop, done[i])
	}

	// Supervision: periodic statistics until every dispatch loop retires.
	stats := time.NewTicker(5 * time.Second)
	for _, d := range done {
		for waiting := true; waiting; {
			select {
			case <-d:
				waiting = false
			case <-stats.C:
				harvester.ReportStatistics()
			}
		}
	}
	stats.Stop()

	// PHASE 2: Drain and persist
	debug.DropMessage("DRAIN", "All dispatch loops retired")
	control.Shutdown()
	harvester.Wait()
	harvester.ReportStatistics()
	if err := harvester.Close(constants.TraceManifestPath); err != nil {
		debug.DropError("TRACE_CLOSE", err)
	}

	if n, err := schedtrace.CountEvents(constants.TraceDatabasePath); err == nil {
		debug.DropMessage("DONE", utils.Itoa(int(n))+" events persisted to "+
			constants.TraceDatabasePath)
	}
}

// setupSignalHandling wires SIGINT/SIGTERM to the global stop flag so a
// keyboard interrupt drains the trace instead of truncating it.
func setupSignalHandling() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		debug.DropMessage("SIGNAL", "Shutdown requested")
		control.Shutdown()
	}()
}
