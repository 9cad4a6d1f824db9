package compiler

import (
	"sort"

	"sdsim/internal/frame"
	"sdsim/internal/ir"
)

const (
	slotTime      = 0
	slotTimeDelta = 1
	firstNodeSlot = 2
)

// assignSlots assigns every computed node a stable state-vector slot,
// independent of evaluation order: the built-in variables occupy the fixed
// front slots, then every computed node gets a slot in ObjectID order so the
// assignment is deterministic across repeated compiles of the same frame.
func assignSlots(fr frame.Frame) (computed []*frame.Object, index map[frame.ObjectID]int, layout []ir.SlotInfo) {
	computed = make([]*frame.Object, 0)
	for _, o := range fr.Objects() {
		if o.Type.IsComputedType() {
			computed = append(computed, o)
		}
	}
	sort.Slice(computed, func(i, j int) bool { return computed[i].ID < computed[j].ID })

	index = make(map[frame.ObjectID]int, len(computed))
	layout = make([]ir.SlotInfo, firstNodeSlot+len(computed))
	layout[slotTime] = ir.SlotInfo{Name: "time", Kind: ir.KindAuxiliary}
	layout[slotTimeDelta] = ir.SlotInfo{Name: "time_delta", Kind: ir.KindAuxiliary}

	for i, o := range computed {
		idx := firstNodeSlot + i
		index[o.ID] = idx
		layout[idx] = ir.SlotInfo{Name: o.Name, Kind: computationKind(o.Type), ObjectID: string(o.ID)}
	}
	return computed, index, layout
}

func computationKind(t frame.ObjectType) ir.ComputationKind {
	switch t {
	case frame.TypeStock:
		return ir.KindStock
	case frame.TypeFlow:
		return ir.KindFlow
	case frame.TypeGraphicalFunction:
		return ir.KindGraphical
	case frame.TypeDelay:
		return ir.KindDelay
	default:
		return ir.KindAuxiliary
	}
}
