package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys.
const (
	// Model
	AttrModelNodes  = "model.nodes"
	AttrModelStocks = "model.stocks"
	AttrModelFlows  = "model.flows"

	// Compile
	AttrCompileErrors   = "compile.errors"
	AttrCompileWarnings = "compile.warnings"
	AttrCompileOK       = "compile.ok"

	// Simulation
	AttrSolverName = "simulation.solver"
	AttrSteps      = "simulation.steps"
	AttrTimeDelta  = "simulation.time_delta"
	AttrNonFinite  = "simulation.non_finite_values"
)

// ModelAttributes returns attributes describing a compiled model's size.
func ModelAttributes(nodes, stocks, flows int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrModelNodes, nodes),
		attribute.Int(AttrModelStocks, stocks),
		attribute.Int(AttrModelFlows, flows),
	}
}

// CompileAttributes returns attributes describing a Compile() outcome.
func CompileAttributes(errorsCount, warningsCount int, ok bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrCompileErrors, errorsCount),
		attribute.Int(AttrCompileWarnings, warningsCount),
		attribute.Bool(AttrCompileOK, ok),
	}
}

// SimulationAttributes returns attributes describing a Simulator.Run(n) call.
func SimulationAttributes(solver string, steps int, timeDelta float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolverName, solver),
		attribute.Int(AttrSteps, steps),
		attribute.Float64(AttrTimeDelta, timeDelta),
	}
}
