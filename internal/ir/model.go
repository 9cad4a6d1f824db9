package ir

// ComputationKind tags which of the five computed-node kinds a Computation
// represents.
type ComputationKind int

const (
	KindStock ComputationKind = iota
	KindFlow
	KindAuxiliary
	KindGraphical
	KindDelay
)

func (k ComputationKind) String() string {
	switch k {
	case KindStock:
		return "stock"
	case KindFlow:
		return "flow"
	case KindAuxiliary:
		return "auxiliary"
	case KindGraphical:
		return "graphical"
	case KindDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// Point is one (x, y) sample of a graphical function.
type Point struct {
	X float64
	Y float64
}

// GraphicalFunc is a tabulated nonlinear transfer function: one input slot
// mapped through a lookup table.
type GraphicalFunc struct {
	InputIndex    int
	Points        []Point
	Interpolation string // only "step" is implemented
}

// Lookup evaluates the graphical function for the given input using step
// interpolation: the point whose x is nearest the input, ties broken by the
// earlier point in storage order. An empty point set yields 0.
func (g *GraphicalFunc) Lookup(input float64) float64 {
	if len(g.Points) == 0 {
		return 0
	}
	best := g.Points[0]
	bestDist := abs(input - best.X)
	for _, p := range g.Points[1:] {
		d := abs(input - p.X)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best.Y
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// DelaySpec is a delay1 FIFO: it buffers its input slot over a fixed number
// of steps and outputs the oldest buffered value. OutputIndex is the
// state-vector slot the delay's own computed node occupies. BufferSlot is
// this delay's position within CompiledModel.Delays, which the simulator
// uses to index its parallel slice of FIFO buffers — it is not itself a
// state-vector index.
type DelaySpec struct {
	InputIndex    int
	OutputIndex   int
	DurationSteps int    // ceil(duration / time_delta), buffer depth
	OutputKind    string // only "delay1" is implemented
	BufferSlot    int
}

// CompiledStock is a stock's integration rule: its own state slot, the
// expression for its initial value, and the flow slots that add to or
// subtract from it. Inflows and outflows are sorted by flow priority
// ascending, ties broken by object identifier ascending — this is the order
// the solver's non-negativity clamp draws outflows down in.
type CompiledStock struct {
	StateIndex     int
	InitialExpr    Expr
	AllowsNegative bool
	DelayedInflow  bool
	Inflows        []int // flow state-indices
	Outflows       []int // flow state-indices
}

// Computation is one entry of the compiled evaluation plan: a tagged union
// over the node kind it was produced from. Exactly one of Graphical, Delay,
// Stock is non-nil, matching Kind; flows and auxiliaries carry only Formula.
type Computation struct {
	Index     int
	Kind      ComputationKind
	Formula   Expr // flow/auxiliary formula, or a stock's initial-expr
	Graphical *GraphicalFunc
	Delay     *DelaySpec
	Stock     *CompiledStock
}

// SlotInfo names a state-vector slot for diagnostics and result reporting.
type SlotInfo struct {
	Name     string
	Kind     ComputationKind
	ObjectID string
}

// SimulationDefaults carries the run parameters read off the Simulation
// control node, used when a caller does not override them explicitly.
type SimulationDefaults struct {
	InitialTime float64
	TimeDelta   float64
	Steps       int
}

// CompiledModel is the compiler's output: everything the solver and
// simulator need to run, with no further name resolution or graph walking
// required.
type CompiledModel struct {
	StateLayout     []SlotInfo
	Computations    []Computation
	Stocks          []CompiledStock
	Flows           []int // flow state-indices
	Graphical       []GraphicalFunc
	Delays          []DelaySpec
	EvaluationOrder []int // topologically valid permutation of state indices
	StockOrder      []int // stock state indices in drain->fill dependency order, for clamp cascading
	Defaults        SimulationDefaults
}
