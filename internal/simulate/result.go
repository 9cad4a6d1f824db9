package simulate

// Row is one row of the simulation result history: a snapshot of every
// state-vector slot at a point in time. Values is aligned to the compiled
// model's StateLayout. NonFinite lists the state indices whose value was
// NaN or ±Inf when this row was captured — the step that produced them is
// still committed, per the runtime error policy; the caller decides
// whether a non-empty NonFinite is grounds to halt.
type Row struct {
	Time      float64
	Values    []float64
	NonFinite []int
}
