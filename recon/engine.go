// Package recon decides what one freshly parsed sales record means against
// the stored state: insert or update, anomalous or plausible, and whether
// the correction is large enough to redistribute across the performance's
// historical pacing curve.
package recon

import (
	"fmt"
	"log"
	"time"

	"boxoffice-pulse/config"
	models "boxoffice-pulse/database/models_pkg"
	"boxoffice-pulse/parser"
)

// SnapshotStore is the slice of the analytical store the engine needs:
// point lookup of the current aggregate and idempotent upserts. Implemented
// by database/snapshots.Repository.
type SnapshotStore interface {
	GetLatestBefore(code string, asOf time.Time) (*models.SalesSnapshot, error)
	UpsertSnapshot(snap *models.SalesSnapshot) (*models.SalesSnapshot, error)
	GetWeeklySeries(code string) ([]models.WeeklySalesPoint, error)
	UpsertWeeklyPoint(point *models.WeeklySalesPoint) error
	SaveAdjustment(adj *models.TrendAdjustment) error
}

// PerformanceStore is the slice of the canonical performance set the engine
// needs. Implemented by database/performances.Repository.
type PerformanceStore interface {
	GetByCode(code string) (*models.Performance, error)
	EnsureStub(code, title string, startsAt time.Time) error
	UpdateMetadata(code string, updates map[string]interface{}) error
}

// Action is the reconciliation decision for one record
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Result describes what reconciling one record did, or would do under
// dry-run.
type Result struct {
	Action        Action
	Snapshot      *models.SalesSnapshot // row as persisted (ID set after Persist)
	Prior         *models.SalesSnapshot
	TicketDelta   int
	RevenueDelta  float64
	Anomalous     bool
	AnomalyReason string
	Backfill      *BackfillPlan
	Adjustment    *models.TrendAdjustment // written only when Backfill ran
}

// BackfillPlan is the computed weekly redistribution, held separately from
// its persistence so dry-run can report it without writing.
type BackfillPlan struct {
	WeeksOut []int
	Before   []int
	After    []int
}

// Engine reconciles parsed records against the snapshot store
type Engine struct {
	cfg          config.PipelineConfig
	snapshots    SnapshotStore
	performances PerformanceStore
}

// NewEngine creates a reconciliation engine. Thresholds come in through the
// config rather than constants so they are testable.
func NewEngine(cfg config.PipelineConfig, snapshots SnapshotStore, performances PerformanceStore) *Engine {
	return &Engine{
		cfg:          cfg,
		snapshots:    snapshots,
		performances: performances,
	}
}

// Evaluate computes the reconciliation decision for one parsed record
// without writing anything. Reconcile is Evaluate plus persistence.
func (e *Engine) Evaluate(rec parser.Record, asOf time.Time) (*Result, error) {
	// The prior aggregate is the latest snapshot dated at or before this
	// record. A replayed document sees its own stored row (delta zero); a
	// late-arriving older document sees only state that predates it. Neither
	// may diff against newer totals and rewind the pacing curve.
	prior, err := e.snapshots.GetLatestBefore(rec.Code, asOf)
	if err != nil {
		return nil, fmt.Errorf("Evaluate %s: %w", rec.Code, err)
	}

	result := &Result{
		Snapshot: e.buildSnapshot(rec, asOf),
		Prior:    prior,
	}

	if prior == nil {
		// Newly appearing performance: not an anomaly by definition.
		result.Action = ActionInsert
		return result, nil
	}

	result.Action = ActionUpdate
	result.TicketDelta = rec.TotalCount - prior.TotalCount
	result.RevenueDelta = rec.TotalRevenue - prior.TotalRevenue

	result.Anomalous, result.AnomalyReason = e.classifyAnomaly(result.TicketDelta, prior.TotalCount, rec.TotalCount)

	if abs(result.TicketDelta) > e.cfg.MaterialityThreshold {
		plan, err := e.planBackfill(rec.Code, result.TicketDelta)
		if err != nil {
			return nil, err
		}
		result.Backfill = plan
	}

	return result, nil
}

// Reconcile evaluates one record and persists the outcome: the snapshot
// upsert, the adjusted weekly points, and the adjustment audit row. Anomaly
// detection is soft; a flagged record is persisted all the same.
func (e *Engine) Reconcile(rec parser.Record, asOf time.Time) (*Result, error) {
	result, err := e.Evaluate(rec, asOf)
	if err != nil {
		return nil, err
	}

	if result.Anomalous {
		log.Printf("⚠️  Anomalous delta for %s: %s (persisting anyway)", rec.Code, result.AnomalyReason)
	}

	if result.Action == ActionInsert {
		perf, err := e.performances.GetByCode(rec.Code)
		if err != nil {
			return nil, fmt.Errorf("Reconcile %s: %w", rec.Code, err)
		}
		switch {
		case perf == nil:
			if err := e.performances.EnsureStub(rec.Code, "", rec.StartsAt); err != nil {
				return nil, fmt.Errorf("Reconcile %s: %w", rec.Code, err)
			}
		case perf.StartsAt.IsZero() && !rec.StartsAt.IsZero():
			// Onboarded rows often lack a curtain time until the first
			// report mentioning them arrives.
			updates := map[string]interface{}{"starts_at": rec.StartsAt}
			if err := e.performances.UpdateMetadata(rec.Code, updates); err != nil {
				return nil, fmt.Errorf("Reconcile %s: %w", rec.Code, err)
			}
		}
	}

	stored, err := e.snapshots.UpsertSnapshot(result.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("Reconcile %s: %w", rec.Code, err)
	}
	result.Snapshot = stored

	if result.Backfill != nil {
		adj, err := e.applyBackfill(rec.Code, stored, result)
		if err != nil {
			return nil, err
		}
		result.Adjustment = adj
	}

	// Observed last so the current reading wins over any backfill write to
	// the same week.
	if err := e.observeWeeklyPoint(rec, asOf); err != nil {
		return nil, fmt.Errorf("Reconcile %s: %w", rec.Code, err)
	}

	return result, nil
}

// observeWeeklyPoint records the current total on the pacing curve at the
// week this reading falls, counted in whole weeks before curtain. Records
// without a start date, past performances and readings outside the pacing
// window leave the curve alone.
func (e *Engine) observeWeeklyPoint(rec parser.Record, asOf time.Time) error {
	if rec.StartsAt.IsZero() || rec.StartsAt.Before(asOf) {
		return nil
	}
	weeksOut := int(rec.StartsAt.Sub(asOf).Hours() / (24 * 7))
	if weeksOut > e.cfg.PacingWindowWeeks {
		return nil
	}
	return e.snapshots.UpsertWeeklyPoint(&models.WeeklySalesPoint{
		PerformanceCode: rec.Code,
		WeeksOut:        weeksOut,
		Tickets:         rec.TotalCount,
		Source:          e.cfg.ProvenanceObserved,
	})
}

// classifyAnomaly flags implausible single-step movements: a drop past the
// floor, or growth past the configured multiple of the prior total. Soft
// detection only; the caller counts and continues.
func (e *Engine) classifyAnomaly(ticketDelta, priorTotal, newTotal int) (bool, string) {
	if ticketDelta < -e.cfg.AnomalyDropFloor {
		return true, fmt.Sprintf("ticket drop of %d exceeds floor of %d", -ticketDelta, e.cfg.AnomalyDropFloor)
	}
	if ticketDelta > 0 && priorTotal > 0 &&
		float64(newTotal) > e.cfg.AnomalyGrowthFactor*float64(priorTotal) {
		return true, fmt.Sprintf("growth from %d to %d exceeds %.1fx", priorTotal, newTotal, e.cfg.AnomalyGrowthFactor)
	}
	return false, ""
}

// planBackfill computes the proportional redistribution for a material
// delta against the performance's current weekly series.
func (e *Engine) planBackfill(code string, delta int) (*BackfillPlan, error) {
	points, err := e.snapshots.GetWeeklySeries(code)
	if err != nil {
		return nil, fmt.Errorf("planBackfill %s: %w", code, err)
	}
	if len(points) == 0 {
		// No historical curve to adjust against.
		return nil, nil
	}

	plan := &BackfillPlan{
		WeeksOut: make([]int, len(points)),
		Before:   make([]int, len(points)),
	}
	for i, pt := range points {
		plan.WeeksOut[i] = pt.WeeksOut
		plan.Before[i] = pt.Tickets
	}

	after, applied := Redistribute(plan.Before, delta)
	if !applied {
		return nil, nil
	}
	plan.After = after
	return plan, nil
}

// applyBackfill persists the adjusted weekly points and appends the
// adjustment audit row.
func (e *Engine) applyBackfill(code string, stored *models.SalesSnapshot, result *Result) (*models.TrendAdjustment, error) {
	plan := result.Backfill
	for i := range plan.WeeksOut {
		if plan.After[i] == plan.Before[i] {
			continue
		}
		point := &models.WeeklySalesPoint{
			PerformanceCode: code,
			WeeksOut:        plan.WeeksOut[i],
			Tickets:         plan.After[i],
			Source:          e.cfg.ProvenanceBackfill,
		}
		if err := e.snapshots.UpsertWeeklyPoint(point); err != nil {
			return nil, fmt.Errorf("applyBackfill %s: %w", code, err)
		}
	}

	adj := &models.TrendAdjustment{
		PerformanceCode: code,
		SnapshotID:      stored.ID,
		OldTotal:        result.Prior.TotalCount,
		NewTotal:        result.Snapshot.TotalCount,
		Delta:           result.TicketDelta,
		WeeksBefore:     weeksJSON(plan.WeeksOut, plan.Before),
		WeeksAfter:      weeksJSON(plan.WeeksOut, plan.After),
		Confidence:      e.cfg.BackfillConfidence,
	}
	if err := e.snapshots.SaveAdjustment(adj); err != nil {
		return nil, fmt.Errorf("applyBackfill %s: %w", code, err)
	}

	log.Printf("📈 Backfilled %s: total %d → %d (delta %+d) across %d weeks",
		code, adj.OldTotal, adj.NewTotal, adj.Delta, len(plan.WeeksOut))
	return adj, nil
}

// buildSnapshot maps a parsed record onto a snapshot row for the given
// as-of date, tagged with this pipeline's provenance.
func (e *Engine) buildSnapshot(rec parser.Record, asOf time.Time) *models.SalesSnapshot {
	return &models.SalesSnapshot{
		PerformanceCode: rec.Code,
		AsOfDate:        asOf,

		FixedCount:    rec.FixedCount,
		FlexCount:     rec.FlexCount,
		SingleCount:   rec.SingleCount,
		ReservedCount: rec.ReservedCount,
		TotalCount:    rec.TotalCount,

		FixedRevenue:    rec.FixedRevenue,
		FlexRevenue:     rec.FlexRevenue,
		SingleRevenue:   rec.SingleRevenue,
		ReservedRevenue: rec.ReservedRevenue,
		SubtotalRevenue: rec.SubtotalRevenue,
		TotalRevenue:    rec.TotalRevenue,

		AvailableSeats: rec.AvailableSeats,
		CapacityPct:    rec.CapacityPct,
		BudgetPct:      rec.BudgetPct,

		AvgPriceFixed:  rec.AvgPriceFixed,
		AvgPriceFlex:   rec.AvgPriceFlex,
		AvgPriceSingle: rec.AvgPriceSingle,

		Provenance: e.cfg.ProvenanceIngestion,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
