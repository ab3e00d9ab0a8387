package engine

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Maintenance runs a periodic, report-only inspection of an Engine's
// free-list and path-trie chains on a cron schedule. It never reclaims
// or rewrites anything: its only effect is a log line. This exists so
// operators can get visibility into growth without the engine itself
// running any background compaction.
type Maintenance struct {
	mu   sync.Mutex
	cron *cron.Cron
	e    *Engine
}

// NewMaintenance wires a Maintenance reporter to e. Nothing runs until
// ScheduleCompaction registers a schedule and starts the scheduler.
func NewMaintenance(e *Engine) *Maintenance {
	return &Maintenance{cron: cron.New(), e: e}
}

// ScheduleCompaction registers a report job on spec (standard cron
// syntax) and starts the scheduler. Calling it more than once adds
// additional jobs to the same running scheduler.
func (m *Maintenance) ScheduleCompaction(spec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.cron.AddFunc(spec, m.report)
	if err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight report to finish.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// report logs chain lengths for the free-list and path trie. It holds
// the engine's stream lock only long enough to read the root links and
// walk the chains; it never mutates anything.
func (m *Maintenance) report() {
	m.e.fslock.Lock()
	freeLen, freeErr := chainLength(m.e.store, m.e.root.freeListLink)
	trieLen, trieErr := chainLength(m.e.store, m.e.root.pathTrieLink)
	m.e.fslock.Unlock()

	if freeErr != nil {
		log.Printf("streamdb maintenance: free-list chain walk failed: %v", freeErr)
	}
	if trieErr != nil {
		log.Printf("streamdb maintenance: path trie chain walk failed: %v", trieErr)
	}
	log.Printf("streamdb maintenance: free-list pages=%d path-trie pages=%d", freeLen, trieLen)
}

// chainLength reports how many pages are reachable from link's current
// revision, purely for reporting purposes.
func chainLength(store *pagedStore, link *versionedLink) (int, error) {
	head, ok := link.TryGet(RevisionCurrent)
	if !ok {
		return 0, nil
	}
	pages, err := loadChainPages(store, head)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}
