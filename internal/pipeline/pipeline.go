// =============================================================================
// Transport Challan & Ledger - Generation Pipeline
// =============================================================================
//
// This module orchestrates document generation for one set of records:
//
//   1. Group records with the policy of the document family
//   2. Aggregate each group with its adjustments
//   3. Assemble the printable field sets
//   4. Render every document (in parallel, bounded by Concurrency)
//
// Each run returns its documents as artifacts addressed by bundle path.
// Writing them out (ZIP or plain files) is left to the caller.
//
// CONCURRENCY:
//   Groups are independent once formed, so rendering runs on an errgroup.
//   The first render error cancels the remaining work and fails the run;
//   partial output is never returned.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/period"
	"github.com/ginjaninja78/transport-challan-ledger/internal/render"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/pkg/utils"
)

// ErrNoData is returned when grouping forms no group. It is informational:
// callers report it and exit successfully.
var ErrNoData = errors.New("pipeline: no data to process")

// =============================================================================
// OPTIONS
// =============================================================================

// Options are the run settings that are not part of the input rows.
type Options struct {
	// RunID stamps every result of the pipeline. A new one is drawn when
	// unset.
	RunID uuid.UUID

	// OtherExpenses is deducted from every challan balance.
	OtherExpenses decimal.Decimal

	// Hamali is the challan route hamali table.
	Hamali aggregate.RouteCharges

	// LedgerHamali is the route constant hamali of correction ledgers.
	LedgerHamali aggregate.RouteCharges

	// Scheme and Routes select ledger periods and billed routes.
	Scheme period.Scheme
	Routes grouping.RouteFilter

	// Variant selects weekly bills or correction ledgers. Only correction
	// ledgers deduct hamali and apply manual corrections.
	Variant assemble.Variant

	// PreviousBalances maps consignor to the balance carried onto each of
	// that consignor's bills.
	PreviousBalances map[string]decimal.Decimal

	// Corrections is keyed by aggregate.CorrectionKey.
	Corrections map[string]aggregate.Correction

	// RowsPerPage limits route summary pages.
	RowsPerPage int

	// Concurrency bounds parallel rendering.
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.RunID == uuid.Nil {
		o.RunID = uuid.New()
	}
	if o.Hamali.Routes == nil {
		o.Hamali = aggregate.NewRouteCharges(nil)
	}
	if o.LedgerHamali.Routes == nil {
		o.LedgerHamali = aggregate.LedgerHamali()
	}
	if o.Variant == "" {
		o.Variant = assemble.VariantWeekly
	}
	if o.Scheme == nil {
		o.Scheme = period.Weekly{}
	}
	if o.Routes == nil {
		o.Routes = grouping.AllRoutes
	}
	if o.RowsPerPage <= 0 {
		o.RowsPerPage = 30
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// =============================================================================
// RESULT
// =============================================================================

// Artifact is one generated file, addressed by its bundle directory.
type Artifact struct {
	Dir  string
	Name string
	Data []byte
}

// Path returns the slash-separated bundle path.
func (a Artifact) Path() string {
	return path.Join(a.Dir, a.Name)
}

// Entry converts the artifact for the file manager.
func (a Artifact) Entry() utils.Entry {
	return utils.Entry{Path: a.Path(), Data: a.Data}
}

// Result is the outcome of one generation run.
type Result struct {
	RunID     uuid.UUID
	Artifacts []Artifact

	// Groups is the number of groups documents were produced for.
	Groups   int
	Grouping grouping.Stats

	// Total is the sum of AMOUNT over every grouped record.
	Total decimal.Decimal
}

// Entries returns every artifact for the file manager.
func (r *Result) Entries() []utils.Entry {
	entries := make([]utils.Entry, len(r.Artifacts))
	for i, a := range r.Artifacts {
		entries[i] = a.Entry()
	}
	return entries
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline generates the documents of one run.
type Pipeline struct {
	renderer render.Renderer
	opts     Options
	log      *slog.Logger
}

// New creates a pipeline that renders with renderer.
func New(renderer render.Renderer, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{renderer: renderer, opts: opts.withDefaults(), log: log}
}

// job renders one artifact.
type job func(ctx context.Context) (Artifact, error)

// run executes jobs with bounded parallelism, keeping their order.
func (p *Pipeline) run(ctx context.Context, jobs []job) ([]Artifact, error) {
	artifacts := make([]Artifact, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			a, err := j(ctx)
			if err != nil {
				return err
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// document returns a job rendering doc under dir.
func (p *Pipeline) document(dir, name string, doc render.Document) job {
	return func(ctx context.Context) (Artifact, error) {
		data, err := p.renderer.Render(ctx, doc)
		if err != nil {
			return Artifact{}, fmt.Errorf("%s: %w", name, err)
		}
		return Artifact{Dir: dir, Name: render.FileName(p.renderer, name), Data: data}, nil
	}
}

// workbook returns a job producing a spreadsheet under dir.
func workbook(dir, name string, build func() ([]byte, error)) job {
	return func(context.Context) (Artifact, error) {
		data, err := build()
		if err != nil {
			return Artifact{}, fmt.Errorf("%s: %w", name, err)
		}
		return Artifact{Dir: dir, Name: name, Data: data}, nil
	}
}

func (p *Pipeline) logGrouping(policy string, stats grouping.Stats, groups int) {
	p.log.Info("records grouped",
		"policy", policy,
		"input", stats.Input,
		"groups", groups,
		"dropped_unknown_date", stats.DroppedUnknownDate,
		"dropped_excluded", stats.DroppedExcluded,
	)
}

// =============================================================================
// CHALLANS
// =============================================================================

// Challans produces one challan per (serial, date, driver, route) and one
// route summary per (month, route).
func (p *Pipeline) Challans(ctx context.Context, records []types.ShipmentRecord) (*Result, error) {
	res := grouping.Partition(records, grouping.ChallanPolicy())
	p.logGrouping("challan", res.Stats, len(res.Groups))
	if res.Empty() {
		return nil, ErrNoData
	}
	grouping.SortChallans(res.Groups)

	aggs := make([]aggregate.Record[grouping.ChallanKey], 0, len(res.Groups))
	for _, g := range res.Groups {
		aggs = append(aggs, aggregate.Compute(g, aggregate.Adjustments{
			Charges:       p.opts.Hamali.For(g.Key.Route()),
			OtherExpenses: p.opts.OtherExpenses,
		}))
	}

	var jobs []job
	for _, rec := range aggs {
		c := assemble.NewChallan(rec)
		jobs = append(jobs, p.document(c.BundleDir, c.FileName, c))
	}
	for _, s := range assemble.RouteSummaries(aggs, p.opts.RowsPerPage) {
		jobs = append(jobs, p.document(s.BundleDir, s.FileName, s))
	}

	artifacts, err := p.run(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: challans: %w", err)
	}
	return &Result{
		RunID:     p.opts.RunID,
		Artifacts: artifacts,
		Groups:    len(aggs),
		Grouping:  res.Stats,
		Total:     aggregate.TotalAmount(aggs),
	}, nil
}

// =============================================================================
// LEDGERS
// =============================================================================

// Ledgers produces a bill, a ledger and a workbook per (consignor, period,
// route).
func (p *Pipeline) Ledgers(ctx context.Context, records []types.ShipmentRecord) (*Result, error) {
	res := grouping.Partition(records, grouping.LedgerPolicy(p.opts.Scheme, p.opts.Routes))
	p.logGrouping("ledger", res.Stats, len(res.Groups))
	if res.Empty() {
		return nil, ErrNoData
	}
	grouping.SortLedgers(res.Groups)

	aggs := make([]aggregate.Record[grouping.LedgerKey], 0, len(res.Groups))
	var jobs []job
	for _, g := range res.Groups {
		rec := aggregate.Compute(g, p.ledgerAdjustments(g.Key))
		aggs = append(aggs, rec)

		set := assemble.NewLedgerSet(rec, p.opts.Variant)
		wb := set.Workbook
		jobs = append(jobs,
			p.document(set.BundleDir, set.Bill.FileName, set.Bill),
			p.document(set.BundleDir, set.Ledger.FileName, set.Ledger),
			workbook(set.BundleDir, wb.FileName, func() ([]byte, error) { return render.LedgerWorkbook(wb) }),
		)
	}

	artifacts, err := p.run(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ledgers: %w", err)
	}
	return &Result{
		RunID:     p.opts.RunID,
		Artifacts: artifacts,
		Groups:    len(aggs),
		Grouping:  res.Stats,
		Total:     aggregate.TotalAmount(aggs),
	}, nil
}

// ledgerAdjustments looks up the balance, hamali and correction of one bill.
// Weekly bills carry the consignor balance only.
func (p *Pipeline) ledgerAdjustments(key grouping.LedgerKey) aggregate.Adjustments {
	adj := aggregate.Adjustments{
		PreviousBalance: p.opts.PreviousBalances[key.Consignor],
	}
	if p.opts.Variant != assemble.VariantCorrection {
		return adj
	}

	adj.Charges = p.opts.LedgerHamali.For(key.Route())
	if c, ok := p.opts.Corrections[aggregate.CorrectionKey(key.Consignor, key.PeriodLabel, key.Route())]; ok {
		adj.ManualDeduction = c.Deduction
		adj.ManualAddition = c.Addition
		if c.PreviousBalance.Valid {
			adj.PreviousBalance = c.PreviousBalance.Decimal
		}
	}
	return adj
}

// =============================================================================
// PARTY SUMMARY
// =============================================================================

// PartySummary produces the all-party report and its workbook. A non-empty
// consignor limits the report to that party.
func (p *Pipeline) PartySummary(ctx context.Context, records []types.ShipmentRecord, consignor string) (*Result, error) {
	policy := grouping.PartyPolicy()
	if want := strings.TrimSpace(consignor); want != "" {
		include := policy.Include
		policy.Include = func(r types.ShipmentRecord) bool {
			return include(r) && strings.EqualFold(r.Consignor, want)
		}
	}

	res := grouping.Partition(records, policy)
	p.logGrouping("party", res.Stats, len(res.Groups))
	if res.Empty() {
		return nil, ErrNoData
	}
	grouping.SortParties(res.Groups)

	aggs := make([]aggregate.Record[string], 0, len(res.Groups))
	for _, g := range res.Groups {
		aggs = append(aggs, aggregate.Compute(g, aggregate.Adjustments{}))
	}

	summary := assemble.NewPartySummary(aggs)
	artifacts, err := p.run(ctx, []job{
		p.document("", summary.FileName, summary),
		workbook("", summary.WorkbookName, func() ([]byte, error) { return render.PartySummaryWorkbook(summary) }),
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: party summary: %w", err)
	}
	return &Result{
		RunID:     p.opts.RunID,
		Artifacts: artifacts,
		Groups:    len(aggs),
		Grouping:  res.Stats,
		Total:     aggregate.TotalAmount(aggs),
	}, nil
}
