package main

import (
	"encoding/json"
	"fmt"
	"os"

	"sdsim/internal/frame"
)

// scenarioFile is the minimal on-disk shape this demo runner accepts: a
// flat node/edge list in the same vocabulary frame.Builder uses. It is a
// fixture format for compiling something concrete, not a design file format
// in its own right.
type scenarioFile struct {
	Nodes []scenarioNode `json:"nodes"`
	Edges []scenarioEdge `json:"edges"`
}

type scenarioNode struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Attrs map[string]any `json:"attrs"`
}

type scenarioEdge struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Origin string         `json:"origin"`
	Target string         `json:"target"`
	Attrs  map[string]any `json:"attrs"`
}

func loadScenario(path string) (frame.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sf scenarioFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	b := frame.NewBuilder()
	for _, n := range sf.Nodes {
		typ, err := nodeType(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		b.AddNode(frame.ObjectID(n.ID), typ, n.Name, normalizeAttrs(n.Attrs))
	}
	for _, e := range sf.Edges {
		typ, err := edgeType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Origin, e.Target, err)
		}
		b.AddEdge(frame.ObjectID(e.ID), typ, frame.ObjectID(e.Origin), frame.ObjectID(e.Target), normalizeAttrs(e.Attrs))
	}

	fr, errs := b.Build()
	if len(errs) > 0 {
		return nil, fmt.Errorf("scenario has %d structural error(s), first: %v", len(errs), errs[0])
	}
	return fr, nil
}

func nodeType(s string) (frame.ObjectType, error) {
	switch s {
	case "stock":
		return frame.TypeStock, nil
	case "flow":
		return frame.TypeFlow, nil
	case "auxiliary":
		return frame.TypeAuxiliary, nil
	case "graphical_function":
		return frame.TypeGraphicalFunction, nil
	case "delay":
		return frame.TypeDelay, nil
	case "simulation":
		return frame.TypeSimulation, nil
	default:
		return frame.TypeUnspecified, fmt.Errorf("unknown node type %q", s)
	}
}

func edgeType(s string) (frame.ObjectType, error) {
	switch s {
	case "drains":
		return frame.TypeDrains, nil
	case "fills":
		return frame.TypeFills, nil
	case "parameter":
		return frame.TypeParameter, nil
	default:
		return frame.TypeUnspecified, fmt.Errorf("unknown edge type %q", s)
	}
}

// normalizeAttrs converts the generic JSON decoding of
// graphical_function_points (a slice of {"x":.., "y":..} maps) into the
// []frame.Point type frame.Object.AttrPoints expects. Every other attribute
// passes through unchanged, since JSON numbers and booleans already decode
// to the float64/bool types AttrFloat64/AttrBool read.
func normalizeAttrs(attrs map[string]any) map[string]any {
	raw, ok := attrs["graphical_function_points"]
	if !ok {
		return attrs
	}
	items, ok := raw.([]any)
	if !ok {
		return attrs
	}
	points := make([]frame.Point, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		x, _ := m["x"].(float64)
		y, _ := m["y"].(float64)
		points = append(points, frame.Point{X: x, Y: y})
	}
	attrs["graphical_function_points"] = points
	return attrs
}
