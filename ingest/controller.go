// Package ingest orchestrates batch reprocessing of the report backlog:
// select and order documents, parse them, reconcile each record, and keep
// going past individual failures. A backlog can span years of unattended
// accumulation; one malformed document must never block recovery of the
// rest.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"boxoffice-pulse/cache"
	models "boxoffice-pulse/database/models_pkg"
	"boxoffice-pulse/helpers"
	"boxoffice-pulse/parser"
	"boxoffice-pulse/recon"
)

const (
	cacheKeyEntityCodes   = "catalog:performance_codes"
	entityCodesCacheTTL   = 10 * time.Minute
	provenanceDescription = "batch reprocess"
)

// ReconEngine is the reconciliation surface the controller drives.
// Implemented by recon.Engine.
type ReconEngine interface {
	Evaluate(rec parser.Record, asOf time.Time) (*recon.Result, error)
	Reconcile(rec parser.Record, asOf time.Time) (*recon.Result, error)
}

// EntityCatalog exposes the canonical performance set. Implemented by
// database/performances.Repository.
type EntityCatalog interface {
	ListCodes() ([]string, error)
}

// SnapshotIndex is the point lookup the force flag needs. Implemented by
// database/snapshots.Repository.
type SnapshotIndex interface {
	GetByKey(code string, asOf time.Time) (*models.SalesSnapshot, error)
}

// ExecutionLog records the audit trail of batch runs. Implemented by
// database/executions.Repository.
type ExecutionLog interface {
	Begin(sourceDocument string) (*models.IngestionExecution, error)
	Finish(exec *models.IngestionExecution, status, errorMessage string) error
}

// Options are the run parameters accepted on the CLI surface
type Options struct {
	Since       time.Time // skip documents dated before this
	Performance string    // process only this performance code
	Limit       int       // maximum documents to process, 0 = all
	DryRun      bool      // report statistics, write nothing
	Force       bool      // reprocess keys that already hold data
}

// Stats aggregates what a run did. Documents and records are counted
// separately so an operator can tell a skipped backlog entry from a
// rejected record.
type Stats struct {
	DocumentsProcessed int
	DocumentsSkipped   int
	DocumentsErrored   int

	RecordsReceived   int
	RecordsCreated    int
	RecordsUpdated    int
	RecordsSkipped    int
	RecordsErrored    int
	AnomaliesDetected int
}

// Summary renders the operator-facing run report.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"documents: %d processed, %d skipped, %d errored | records: %d received, %d created, %d updated, %d skipped, %d errored, %d anomalies",
		s.DocumentsProcessed, s.DocumentsSkipped, s.DocumentsErrored,
		s.RecordsReceived, s.RecordsCreated, s.RecordsUpdated,
		s.RecordsSkipped, s.RecordsErrored, s.AnomaliesDetected,
	)
}

// Controller runs the batch reprocessing pipeline. Processing is strictly
// sequential, one document at a time and one record at a time: the backfill
// must operate against the most recently written state for a performance,
// and interleaved writers would apply corrections against stale totals.
type Controller struct {
	source    Source
	extractor Extractor
	parser    *parser.Parser
	engine    ReconEngine
	catalog   EntityCatalog
	index     SnapshotIndex
	execs     ExecutionLog
	redis     *cache.RedisClient // optional, nil disables caching
}

// NewController wires the batch controller
func NewController(
	source Source,
	extractor Extractor,
	p *parser.Parser,
	engine ReconEngine,
	catalog EntityCatalog,
	index SnapshotIndex,
	execs ExecutionLog,
	redis *cache.RedisClient,
) *Controller {
	return &Controller{
		source:    source,
		extractor: extractor,
		parser:    p,
		engine:    engine,
		catalog:   catalog,
		index:     index,
		execs:     execs,
		redis:     redis,
	}
}

// workItem is a document with its extraction and derived as-of date done.
type workItem struct {
	doc   SourceDocument
	pages [][]string
	asOf  time.Time
}

// Run processes the backlog under the given options and returns aggregate
// statistics. Only startup failures (unreachable source or store) return an
// error; per-document and per-record failures are absorbed into the stats.
func (c *Controller) Run(opts Options) (*Stats, error) {
	stats := &Stats{}

	docs, err := c.source.List()
	if err != nil {
		return nil, fmt.Errorf("document source unavailable: %w", err)
	}

	codes, err := c.loadEntityCodes()
	if err != nil {
		return nil, fmt.Errorf("cannot load canonical performance set: %w", err)
	}
	log.Printf("📚 Backlog: %d documents, %d known performances", len(docs), len(codes))

	var exec *models.IngestionExecution
	if !opts.DryRun {
		exec, err = c.execs.Begin(provenanceDescription)
		if err != nil {
			return nil, fmt.Errorf("cannot record execution start: %w", err)
		}
	}

	items := c.prepare(docs, opts, stats)
	for _, item := range items {
		if err := c.processDocument(item, opts, stats); err != nil {
			// Per-document failure: counted, logged, run continues.
			stats.DocumentsErrored++
			log.Printf("⚠️  Document %s failed: %v", item.doc.Name, err)
			continue
		}
		stats.DocumentsProcessed++
	}

	if exec != nil {
		exec.RecordsReceived = stats.RecordsReceived
		exec.RecordsProcessed = stats.RecordsCreated + stats.RecordsUpdated
		exec.RecordsInserted = stats.RecordsCreated
		exec.RecordsUpdated = stats.RecordsUpdated
		exec.RecordsSkipped = stats.RecordsSkipped
		exec.AnomaliesDetected = stats.AnomaliesDetected
		exec.DocumentErrors = stats.DocumentsErrored
		status, errorMessage := models.ExecutionCompleted, ""
		if stats.DocumentsProcessed == 0 && stats.DocumentsErrored > 0 {
			// Every selected document failed; the run recovered nothing.
			status = models.ExecutionFailed
			errorMessage = fmt.Sprintf("all %d documents failed", stats.DocumentsErrored)
		}
		if err := c.execs.Finish(exec, status, errorMessage); err != nil {
			log.Printf("⚠️  Failed to close execution record: %v", err)
		}
	}

	return stats, nil
}

// prepare extracts, dates, filters and chronologically orders the backlog.
// Order matters: later documents' reconciliation decisions depend on the
// running totals left by earlier ones, so the oldest document goes first.
func (c *Controller) prepare(docs []SourceDocument, opts Options, stats *Stats) []workItem {
	var items []workItem
	for _, doc := range docs {
		pages, err := c.extractor.Extract(doc)
		if err != nil {
			stats.DocumentsErrored++
			log.Printf("⚠️  Cannot extract %s: %v", doc.Name, err)
			continue
		}
		asOf, err := deriveAsOfDate(doc, pages)
		if err != nil {
			stats.DocumentsErrored++
			log.Printf("⚠️  %v", err)
			continue
		}
		items = append(items, workItem{doc: doc, pages: pages, asOf: asOf})
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].asOf.Equal(items[j].asOf) {
			return items[i].asOf.Before(items[j].asOf)
		}
		return items[i].doc.Name < items[j].doc.Name
	})

	var selected []workItem
	for _, item := range items {
		if !opts.Since.IsZero() && item.asOf.Before(opts.Since) {
			stats.DocumentsSkipped++
			continue
		}
		if opts.Limit > 0 && len(selected) >= opts.Limit {
			stats.DocumentsSkipped++
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

// processDocument parses one document and reconciles its records in order.
func (c *Controller) processDocument(item workItem, opts Options, stats *Stats) error {
	records := c.parser.ParsePages(item.pages)
	stats.RecordsReceived += len(records)

	codes, err := c.loadEntityCodes()
	if err != nil {
		return err
	}

	log.Printf("📄 %s (as of %s): %d records", item.doc.Name, item.asOf.Format("2006-01-02"), len(records))

	for _, rec := range records {
		if opts.Performance != "" && rec.Code != opts.Performance {
			stats.RecordsSkipped++
			continue
		}
		if err := c.parser.Validate(rec); err != nil {
			stats.RecordsErrored++
			log.Printf("⚠️  Invalid record in %s: %v", item.doc.Name, err)
			continue
		}
		if _, known := codes[rec.Code]; !known {
			// Commonly a forward-looking performance not yet onboarded.
			stats.RecordsSkipped++
			log.Printf("⏭️  Skipping %s: not in canonical performance set", rec.Code)
			continue
		}
		if !opts.Force {
			existing, err := c.index.GetByKey(rec.Code, item.asOf)
			if err != nil {
				stats.RecordsErrored++
				log.Printf("⚠️  Lookup failed for %s: %v", rec.Code, err)
				continue
			}
			if existing != nil {
				stats.RecordsSkipped++
				continue
			}
		}

		var result *recon.Result
		if opts.DryRun {
			result, err = c.engine.Evaluate(rec, item.asOf)
		} else {
			result, err = c.engine.Reconcile(rec, item.asOf)
		}
		if err != nil {
			stats.RecordsErrored++
			log.Printf("⚠️  Reconcile failed for %s in %s: %v", rec.Code, item.doc.Name, err)
			continue
		}

		switch result.Action {
		case recon.ActionInsert:
			stats.RecordsCreated++
			// An insert may have stubbed a new performance row; the cached
			// code set is stale until re-read.
			if !opts.DryRun && c.redis != nil {
				_ = c.redis.Delete(context.Background(), cacheKeyEntityCodes)
			}
		case recon.ActionUpdate:
			stats.RecordsUpdated++
		}
		if result.Anomalous {
			stats.AnomaliesDetected++
			log.Printf("🚩 Anomaly %s: %s | ticket delta %+d | revenue delta %s",
				rec.Code, result.AnomalyReason, result.TicketDelta,
				helpers.FormatAmount(result.RevenueDelta))
		}
	}

	return nil
}

// loadEntityCodes fetches the canonical performance code set, checking the
// cache first and falling through to the store on a miss.
func (c *Controller) loadEntityCodes() (map[string]struct{}, error) {
	var codes []string

	if c.redis != nil {
		if err := c.redis.Get(context.Background(), cacheKeyEntityCodes, &codes); err == nil {
			return toSet(codes), nil
		}
	}

	codes, err := c.catalog.ListCodes()
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		_ = c.redis.Set(context.Background(), cacheKeyEntityCodes, codes, entityCodesCacheTTL)
	}

	return toSet(codes), nil
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}
