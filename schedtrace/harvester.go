// ════════════════════════════════════════════════════════════════════════════════════════════════
// Scheduling Trace Harvester
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: O(1) Teaching-Kernel Scheduler
// Component: Trace Persistence Pipeline
//
// Description:
//   Collects packed scheduling events from every CPU's SPSC trace ring and persists them to
//   SQLite in batched transactions for offline teaching analysis. A JSON run manifest written
//   at close records the scheduler geometry and per-kind totals so a trace file is
//   self-describing.
//
// Data flow:
//   dispatch loop → per-CPU ring → pinned consumer → row buffer → batched INSERT → sched_trace.db
//
// Failure policy:
//   Tracing is observability. Ring overflow drops the record and counts the drop; database
//   errors are logged via debug.DropError and the run continues untraced rather than stalling
//   a dispatch loop.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package schedtrace

import (
	"database/sql"
	"os"
	"sync"
	"time"

	"main/constants"
	"main/control"
	"main/debug"
	"main/ring"
	"main/utils"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

// ManifestSchemaVersion gates manifest compatibility for loaders.
const ManifestSchemaVersion = 1

// Manifest is the JSON run descriptor written next to the database.
type Manifest struct {
	SchemaVersion int               `json:"schemaVersion"`
	NumCPUs       int               `json:"numCpus"`
	NumPriorities int               `json:"numPriorities"`
	StartedNanos  int64             `json:"startedNanos"`
	FinishedNanos int64             `json:"finishedNanos"`
	TotalEvents   uint64            `json:"totalEvents"`
	DroppedEvents uint64            `json:"droppedEvents"`
	PerCPU        []uint64          `json:"perCpu"`
	PerKind       map[string]uint64 `json:"perKind"`
}

// row is one buffered INSERT payload, decoded once at ingest so the flush
// path is pure parameter binding.
type row struct {
	tick     int64
	cpu      int64
	kind     int64
	handle   int64
	priority int64
	data     int64
}

// Harvester owns the rings, the row buffer, and the database connection.
type Harvester struct {
	rings []*ring.Ring // One SPSC ring per CPU, producer side held by dispatch

	mu      sync.Mutex // Guards buffer and counters across ring consumers
	buffer  []row      // Rows awaiting the next batched transaction
	perCPU  []uint64   // Ingested events per core
	perKind [16]uint64 // Ingested events per kind
	total   uint64     // Total ingested events
	dropped uint64     // Producer-side drops reported via CountDrop

	db      *sql.DB
	insert  *sql.Stmt
	dbPath  string
	started time.Time
	done    []chan struct{} // One per pinned consumer
}

// NewHarvester opens (or creates) the trace database and prepares the
// insert path. One ring is created per CPU; dispatch loops fetch theirs
// via Ring.
func NewHarvester(dbPath string, numCPUs int) (*Harvester, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers (analysis tooling) off the writer's back; NORMAL
	// sync is plenty for a teaching trace.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sched_events (
		tick INTEGER NOT NULL,
		cpu INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		handle INTEGER NOT NULL,
		priority INTEGER NOT NULL,
		data INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_sched_events_tick ON sched_events(tick)"); err != nil {
		db.Close()
		return nil, err
	}

	insert, err := db.Prepare(
		"INSERT INTO sched_events (tick, cpu, kind, handle, priority, data) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		db.Close()
		return nil, err
	}

	h := &Harvester{
		rings:   make([]*ring.Ring, numCPUs),
		buffer:  make([]row, 0, constants.TraceFlushBatch),
		perCPU:  make([]uint64, numCPUs),
		db:      db,
		insert:  insert,
		dbPath:  dbPath,
		started: time.Now(),
	}
	for i := range h.rings {
		h.rings[i] = ring.New(1 << constants.TraceRingBits)
	}
	return h, nil
}

// Ring returns CPU cpu's trace ring. The dispatch loop for that core is the
// only permitted producer.
func (h *Harvester) Ring(cpu int) *ring.Ring {
	return h.rings[cpu]
}

// CountDrop records a producer-side ring overflow. Called by dispatch when
// Push returns false; the event itself is gone by design.
func (h *Harvester) CountDrop() {
	h.mu.Lock()
	h.dropped++
	h.mu.Unlock()
}

// Start launches one pinned consumer per CPU ring. Consumers share the
// first core above the dispatch cores so harvesting never steals dispatch
// cycles.
func (h *Harvester) Start() {
	stop, hot := control.Flags()
	harvestCore := len(h.rings)
	h.done = make([]chan struct{}, len(h.rings))
	for i := range h.rings {
		h.done[i] = make(chan struct{})
		ring.PinnedConsumer(harvestCore, h.rings[i], stop, hot, h.ingest, h.done[i])
	}
}

// Wait blocks until every consumer has observed the stop flag and drained
// its ring.
func (h *Harvester) Wait() {
	for _, d := range h.done {
		<-d
	}
}

// ingest decodes one record into the row buffer, flushing a batched
// transaction when the buffer fills. Runs on consumer goroutines; the
// mutex serializes them (teacher discipline: cold path, never dispatch).
func (h *Harvester) ingest(p *[24]byte) {
	e := FromBytes(p)
	r := row{
		tick:     int64(e.Tick),
		cpu:      int64(e.CPU()),
		kind:     int64(e.Kind()),
		handle:   int64(e.Handle()),
		priority: int64(e.Priority()),
		data:     int64(e.Data),
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, r)
	h.total++
	h.perCPU[r.cpu]++
	h.perKind[r.kind&15]++
	needFlush := len(h.buffer) >= constants.TraceFlushBatch
	if needFlush {
		h.flushLocked()
	}
	h.mu.Unlock()
}

// flushLocked writes the buffered rows in one transaction. Caller holds mu.
func (h *Harvester) flushLocked() {
	if len(h.buffer) == 0 {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		debug.DropError("TRACE_TX", err)
		h.buffer = h.buffer[:0]
		return
	}
	stmt := tx.Stmt(h.insert)
	for i := range h.buffer {
		r := &h.buffer[i]
		if _, err := stmt.Exec(r.tick, r.cpu, r.kind, r.handle, r.priority, r.data); err != nil {
			debug.DropError("TRACE_INSERT", err)
			break
		}
	}
	if err := tx.Commit(); err != nil {
		debug.DropError("TRACE_COMMIT", err)
	}
	h.buffer = h.buffer[:0]
}

// ReportStatistics logs running totals. Called periodically from main's
// supervision loop, teacher-style.
func (h *Harvester) ReportStatistics() {
	h.mu.Lock()
	total := h.total
	dropped := h.dropped
	h.mu.Unlock()
	debug.DropMessage("TRACE", utils.Utoa(total)+" events harvested, "+
		utils.Utoa(dropped)+" dropped")
}

// Close flushes the remaining rows, writes the JSON run manifest, and
// closes the database. Call after Wait.
func (h *Harvester) Close(manifestPath string) error {
	h.mu.Lock()
	h.flushLocked()
	m := Manifest{
		SchemaVersion: ManifestSchemaVersion,
		NumCPUs:       len(h.rings),
		NumPriorities: constants.NumPriorities,
		StartedNanos:  h.started.UnixNano(),
		FinishedNanos: time.Now().UnixNano(),
		TotalEvents:   h.total,
		DroppedEvents: h.dropped,
		PerCPU:        append([]uint64(nil), h.perCPU...),
		PerKind:       make(map[string]uint64),
	}
	for k, n := range h.perKind {
		if n != 0 {
			m.PerKind[Kind(k).String()] = n
		}
	}
	h.mu.Unlock()

	if manifestPath != "" {
		data, err := sonnet.Marshal(&m)
		if err != nil {
			debug.DropError("TRACE_MANIFEST", err)
		} else if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
			debug.DropError("TRACE_MANIFEST", err)
		}
	}

	h.insert.Close()
	return h.db.Close()
}

// LoadManifest reads a run manifest back for verification and tooling.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := sonnet.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CountEvents returns the number of persisted events in a trace database.
func CountEvents(dbPath string) (int64, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var n int64
	err = db.QueryRow("SELECT COUNT(*) FROM sched_events").Scan(&n)
	return n, err
}
