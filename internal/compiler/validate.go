package compiler

import (
	"fmt"

	"sdsim/internal/frame"
	"sdsim/pkg/apperror"
)

// validateStructure checks the invariants spec §3 requires before
// compilation proceeds: edge endpoint types, per-flow edge cardinality, the
// graphical-function single-input rule, and node name uniqueness.
func validateStructure(fr frame.Frame) *apperror.NodeIssues {
	issues := apperror.NewNodeIssues()

	seenNames := make(map[string][]frame.ObjectID)
	for _, o := range fr.Objects() {
		if o.Name != "" {
			seenNames[o.Name] = append(seenNames[o.Name], o.ID)
		}
	}
	for name, ids := range seenNames {
		if len(ids) > 1 {
			for _, id := range ids {
				issues.AddError(apperror.CodeDuplicateName,
					fmt.Sprintf("node name %q is used by %d nodes", name, len(ids)), string(id))
			}
		}
	}

	drainsPerFlow := make(map[frame.ObjectID]int)
	fillsPerFlow := make(map[frame.ObjectID]int)
	paramsPerGraphical := make(map[frame.ObjectID]int)

	for _, e := range fr.Edges() {
		origin, hasOrigin := fr.ByID(e.Origin)
		target, hasTarget := fr.ByID(e.Target)

		switch e.Type {
		case frame.TypeDrains:
			if !hasOrigin || origin.Type != frame.TypeStock {
				issues.AddError(apperror.CodeStructural, "drains edge origin must be a stock", string(e.ID))
			}
			if !hasTarget || target.Type != frame.TypeFlow {
				issues.AddError(apperror.CodeStructural, "drains edge target must be a flow", string(e.ID))
			}
			if hasTarget {
				drainsPerFlow[target.ID]++
			}

		case frame.TypeFills:
			if !hasOrigin || origin.Type != frame.TypeFlow {
				issues.AddError(apperror.CodeStructural, "fills edge origin must be a flow", string(e.ID))
			}
			if !hasTarget || target.Type != frame.TypeStock {
				issues.AddError(apperror.CodeStructural, "fills edge target must be a stock", string(e.ID))
			}
			if hasOrigin {
				fillsPerFlow[origin.ID]++
			}

		case frame.TypeParameter:
			if !hasOrigin || !origin.Type.IsComputedType() {
				issues.AddError(apperror.CodeStructural, "parameter edge origin must be a computed node", string(e.ID))
			}
			if !hasTarget || !target.Type.IsComputedType() {
				issues.AddError(apperror.CodeStructural, "parameter edge target must be a computed node", string(e.ID))
			}
			if hasTarget && target.Type == frame.TypeGraphicalFunction {
				paramsPerGraphical[target.ID]++
			}
		}
	}

	for flowID, count := range drainsPerFlow {
		if count > 1 {
			issues.AddError(apperror.CodeStructural, "flow has more than one drains edge", string(flowID))
		}
	}
	for flowID, count := range fillsPerFlow {
		if count > 1 {
			issues.AddError(apperror.CodeStructural, "flow has more than one fills edge", string(flowID))
		}
	}
	for nodeID, count := range paramsPerGraphical {
		if count > 1 {
			issues.AddError(apperror.CodeStructural, "graphical function has more than one incoming parameter edge", string(nodeID))
		}
	}

	return issues
}
