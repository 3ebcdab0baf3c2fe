package resolution

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/observability/metrics"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	// ModeUnblocked compares each unresolved record with every unresolved
	// and resolved record.
	ModeUnblocked Mode = "unblocked"
	// ModeBlocked only compares unresolved records sharing a BlockKey.
	ModeBlocked Mode = "blocked"
)

func ModeFor(blocking bool) Mode {
	if blocking {
		return ModeBlocked
	}
	return ModeUnblocked
}

type Strategy string

const (
	// StrategyGreedy clusters each record with its direct matches only.
	StrategyGreedy Strategy = "greedy"
	// StrategyTransitive clusters connected components of the match graph.
	StrategyTransitive Strategy = "transitive"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyGreedy:
		return StrategyGreedy, nil
	case StrategyTransitive:
		return StrategyTransitive, nil
	default:
		return "", fmt.Errorf("unknown resolution strategy %q", s)
	}
}

type Options struct {
	Mode     Mode
	Strategy Strategy
	Rules    Rules
}

type Report struct {
	Processed  int
	Clusters   int
	Singletons int
	LinkEdges  int
	Repointed  int
	Renamed    int
}

type Engine struct {
	store     Store
	scorer    *Scorer
	threshold float64
	linker    Linker
	mode      Mode
	strategy  Strategy
}

func NewEngine(store Store, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("nil store")
	}
	if opts.Mode == "" {
		opts.Mode = ModeUnblocked
	}
	if opts.Mode != ModeUnblocked && opts.Mode != ModeBlocked {
		return nil, fmt.Errorf("unknown resolution mode %q", opts.Mode)
	}
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		store:     store,
		scorer:    NewScorer(opts.Rules.Weights),
		threshold: opts.Rules.Threshold,
		mode:      opts.Mode,
		strategy:  strategy,
	}, nil
}

func (e *Engine) Mode() Mode         { return e.mode }
func (e *Engine) Strategy() Strategy { return e.strategy }

// pass is the state of one Run.
type pass struct {
	// linked holds every id that owns a link edge: resolved records from
	// earlier passes and members committed during this one. It doubles as the
	// seen-primaries set since a committed primary always owns its edge.
	linked map[int64]struct{}
	report Report
	log    *logrus.Entry
}

// Run resolves every unresolved record. Clusters are committed one at a time,
// so an error leaves earlier clusters in place and later records unresolved.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	p := &pass{
		linked: make(map[int64]struct{}),
		log: logger.WithFields(logrus.Fields{
			"mode":     e.mode,
			"strategy": e.strategy,
		}),
	}

	dirty, err := e.store.ListUnresolvedRestaurants(ctx)
	if err != nil {
		return p.report, fmt.Errorf("listing unresolved restaurants: %w", err)
	}
	if len(dirty) == 0 {
		return p.report, nil
	}
	sortByID(dirty)
	p.report.Processed = len(dirty)

	switch e.mode {
	case ModeBlocked:
		blocks := BuildBlocks(dirty)
		for _, key := range blocks.Keys() {
			members := pointers(blocks[key])
			if err := e.resolve(ctx, p, members, members); err != nil {
				return p.report, err
			}
		}
	default:
		resolved, err := e.store.ListResolvedRestaurants(ctx)
		if err != nil {
			return p.report, fmt.Errorf("listing resolved restaurants: %w", err)
		}
		sortByID(resolved)
		for _, r := range resolved {
			p.linked[r.ID] = struct{}{}
		}
		records := pointers(append(dirty, resolved...))
		if err := e.resolve(ctx, p, records[:len(dirty)], records); err != nil {
			return p.report, err
		}
	}

	return p.report, nil
}

func (e *Engine) resolve(ctx context.Context, p *pass, dirty, pool []*models.Restaurant) error {
	if e.strategy == StrategyTransitive {
		return e.resolveTransitive(ctx, p, dirty, pool)
	}
	return e.resolveGreedy(ctx, p, dirty, pool)
}

func (e *Engine) resolveGreedy(ctx context.Context, p *pass, dirty, pool []*models.Restaurant) error {
	for _, r := range dirty {
		if err := ctx.Err(); err != nil {
			return err
		}

		var linked []*models.Restaurant
		for _, m := range pool {
			if m.ID == r.ID {
				continue
			}
			if e.scorer.Score(*r, *m) > e.threshold {
				linked = append(linked, m)
			}
		}

		if len(linked) == 0 {
			if err := e.commitSingleton(ctx, p, r); err != nil {
				return err
			}
			continue
		}
		if err := e.commitCluster(ctx, p, append(linked, r)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolveTransitive(ctx context.Context, p *pass, dirty, pool []*models.Restaurant) error {
	isDirty := make(map[int64]bool, len(dirty))
	byID := make(map[int64]*models.Restaurant, len(pool))
	sets := newDisjointSet()
	for _, r := range pool {
		byID[r.ID] = r
	}
	for _, r := range dirty {
		isDirty[r.ID] = true
		byID[r.ID] = r
		sets.add(r.ID)
	}

	for _, r := range dirty {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, m := range pool {
			// dirty pairs are symmetric, score them once
			if m.ID == r.ID || (isDirty[m.ID] && m.ID < r.ID) {
				continue
			}
			if e.scorer.Score(*r, *m) > e.threshold {
				sets.union(r.ID, m.ID)
			}
		}
	}

	for _, ids := range sets.components() {
		if err := ctx.Err(); err != nil {
			return err
		}
		members := make([]*models.Restaurant, 0, len(ids))
		for _, id := range ids {
			members = append(members, byID[id])
		}
		if len(members) == 1 {
			if err := e.commitSingleton(ctx, p, members[0]); err != nil {
				return err
			}
			continue
		}
		if err := e.commitCluster(ctx, p, members); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) commitSingleton(ctx context.Context, p *pass, r *models.Restaurant) error {
	// r may already have been absorbed by an earlier cluster whose renamed
	// primary no longer scores above the threshold against it.
	if _, done := p.linked[r.ID]; done {
		return nil
	}

	res, err := e.linker.Commit(ctx, e.store, MergePlan{PrimaryID: r.ID, Members: []int64{r.ID}})
	if err != nil {
		return fmt.Errorf("committing singleton %d: %w", r.ID, err)
	}
	p.linked[r.ID] = struct{}{}
	r.Resolved = true
	p.report.Singletons++
	p.report.LinkEdges += res.Edges
	metrics.ObserveCluster(false, res.Edges, res.Repoints)
	return nil
}

func (e *Engine) commitCluster(ctx context.Context, p *pass, members []*models.Restaurant) error {
	values := make([]models.Restaurant, len(members))
	for i, m := range members {
		values[i] = *m
	}
	cluster := NewCluster(values)

	var newcomers []int64
	for _, m := range members {
		if _, done := p.linked[m.ID]; !done {
			newcomers = append(newcomers, m.ID)
		}
	}
	// Everything here already owns an edge, typically because the primary
	// was committed earlier in this pass.
	if len(newcomers) == 0 {
		return nil
	}

	plan := MergePlan{
		PrimaryID: cluster.Primary.ID,
		Name:      cluster.Primary.Name,
		Address:   cluster.Primary.Address,
		Rename:    cluster.Renamed,
		Members:   newcomers,
	}
	res, err := e.linker.Commit(ctx, e.store, plan)
	if err != nil {
		return fmt.Errorf("committing cluster with primary %d: %w", plan.PrimaryID, err)
	}

	for _, id := range newcomers {
		p.linked[id] = struct{}{}
	}
	for _, m := range members {
		m.Resolved = true
		if m.ID == plan.PrimaryID && res.Renamed {
			m.Name = plan.Name
			m.Address = plan.Address
		}
	}

	p.report.Clusters++
	p.report.LinkEdges += res.Edges
	p.report.Repointed += res.Repoints
	if res.Renamed {
		p.report.Renamed++
	}
	metrics.ObserveCluster(true, res.Edges, res.Repoints)

	p.log.WithFields(logrus.Fields{
		"primary_id": plan.PrimaryID,
		"members":    newcomers,
		"renamed":    res.Renamed,
	}).Debug("Committed cluster")
	return nil
}

func sortByID(records []models.Restaurant) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

func pointers(records []models.Restaurant) []*models.Restaurant {
	out := make([]*models.Restaurant, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}

// disjointSet is a union-find over restaurant ids whose roots are always the
// smallest id of their set.
type disjointSet struct {
	parent map[int64]int64
}

func newDisjointSet() *disjointSet {
	return &disjointSet{parent: make(map[int64]int64)}
}

func (d *disjointSet) add(id int64) {
	if _, ok := d.parent[id]; !ok {
		d.parent[id] = id
	}
}

func (d *disjointSet) find(id int64) int64 {
	d.add(id)
	root := id
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for id != root {
		next := d.parent[id]
		d.parent[id] = root
		id = next
	}
	return root
}

func (d *disjointSet) union(a, b int64) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
}

// components returns every set as ascending ids, sets ordered by smallest id.
func (d *disjointSet) components() [][]int64 {
	groups := make(map[int64][]int64)
	for id := range d.parent {
		root := d.find(id)
		groups[root] = append(groups[root], id)
	}
	roots := make([]int64, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	out := make([][]int64, 0, len(roots))
	for _, root := range roots {
		ids := groups[root]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	return out
}
