package retrieval

import (
	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

// DefaultKSeeds is the seed count a Hybrid/VectorOnly plan uses when the
// caller doesn't override it.
const DefaultKSeeds = 10

// DefaultLimit bounds a query's result count when PaQL doesn't specify
// LIMIT.
const DefaultLimit = 20

// PlannerConfig carries the fusion weights spec §4.5.2 defaults (α=0.7,
// β=0.3) plus the seed/limit fallbacks used when a query omits them.
type PlannerConfig struct {
	Alpha         float64
	Beta          float64
	DefaultKSeeds int
	DefaultLimit  int
}

// DefaultPlannerConfig mirrors spec §4.5.2's stated defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{Alpha: 0.7, Beta: 0.3, DefaultKSeeds: DefaultKSeeds, DefaultLimit: DefaultLimit}
}

// Planner turns a parsed PaQL AST into one of VectorOnly/GraphOnly/Hybrid
// (spec §4.5.2). It never touches storage — it is a pure function of the
// AST and config, and a capability a test can substitute a fixed Plan
// for.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner builds a Planner with cfg.
func NewPlanner(cfg PlannerConfig) *Planner {
	if cfg.Alpha == 0 && cfg.Beta == 0 {
		cfg.Alpha, cfg.Beta = DefaultPlannerConfig().Alpha, DefaultPlannerConfig().Beta
	}
	if cfg.DefaultKSeeds <= 0 {
		cfg.DefaultKSeeds = DefaultKSeeds
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	return &Planner{cfg: cfg}
}

// Plan converts ast into a physical Plan. A Graph-kind AST with no
// TRAVERSE modifier yields GraphOnly with no relation filter; a Semantic
// or Hybrid AST yields VectorOnly or Hybrid respectively.
func (p *Planner) Plan(ast *paql.AST) (*Plan, error) {
	if ast == nil {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "nil AST")
	}

	filterPred, err := compileFilter(ast.Filter)
	if err != nil {
		return nil, err
	}

	limit := ast.Limit
	if limit <= 0 {
		limit = p.cfg.DefaultLimit
	}

	switch ast.Kind {
	case paql.KindGraph:
		id, err := graph.ParseID(ast.From)
		var seeds []graph.ID
		if err == nil {
			seeds = []graph.ID{id}
		}
		var relFilter *graph.Relation
		if ast.Traverse != "" {
			r := graph.Relation(ast.Traverse)
			relFilter = &r
		}
		return &Plan{
			Kind:         GraphOnly,
			SeedIDs:      seeds,
			Depth:        ast.Depth,
			RelationFilt: relFilter,
			Filter:       filterPred,
			Limit:        limit,
		}, nil

	case paql.KindHybrid:
		return &Plan{
			Kind:      Hybrid,
			QueryText: ast.Text,
			KSeeds:    p.cfg.DefaultKSeeds,
			Hops:      ast.Hops,
			Alpha:     p.cfg.Alpha,
			Beta:      p.cfg.Beta,
			Filter:    filterPred,
			Limit:     limit,
		}, nil

	case paql.KindSemantic:
		return &Plan{
			Kind:      VectorOnly,
			QueryText: ast.Text,
			KSeeds:    p.cfg.DefaultKSeeds,
			Filter:    filterPred,
			Limit:     limit,
		}, nil

	default:
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown PaQL query kind")
	}
}
