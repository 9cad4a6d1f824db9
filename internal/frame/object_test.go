package frame

import "testing"

func TestObjectType_String(t *testing.T) {
	cases := map[ObjectType]string{
		TypeStock:          "stock",
		TypeFlow:           "flow",
		TypeAuxiliary:      "auxiliary",
		TypeDrains:         "drains",
		TypeParameter:      "parameter",
		TypeUnspecified:    "unspecified",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(typ), got, want)
		}
	}
}

func TestObjectType_IsEdgeType(t *testing.T) {
	if !TypeDrains.IsEdgeType() || !TypeParameter.IsEdgeType() {
		t.Error("expected drains and parameter to be edge types")
	}
	if TypeStock.IsEdgeType() || TypeFlow.IsEdgeType() {
		t.Error("expected stock and flow not to be edge types")
	}
}

func TestObjectType_IsComputedType(t *testing.T) {
	if !TypeStock.IsComputedType() || !TypeDelay.IsComputedType() {
		t.Error("expected stock and delay to be computed types")
	}
	if TypeChart.IsComputedType() || TypeNote.IsComputedType() {
		t.Error("expected chart and note not to be computed types")
	}
}

func TestObject_Clone(t *testing.T) {
	o := &Object{ID: "s1", Type: TypeStock, Name: "account", Attrs: map[string]any{"initial": 100.0}}
	clone := o.Clone()
	clone.Attrs["initial"] = 200.0
	if o.Attrs["initial"] != 100.0 {
		t.Error("mutating clone's attrs mutated the original")
	}
	if clone.ID != o.ID || clone.Name != o.Name {
		t.Error("clone should preserve identity fields")
	}
}

func TestObject_AttrAccessors(t *testing.T) {
	o := &Object{Attrs: map[string]any{
		"initial":       42.0,
		"label":         "account",
		"allow_negative": true,
		"curve":         []Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}}

	if v := o.AttrFloat64("initial", -1); v != 42.0 {
		t.Errorf("AttrFloat64 = %v, want 42", v)
	}
	if v := o.AttrFloat64("missing", -1); v != -1 {
		t.Errorf("AttrFloat64 default = %v, want -1", v)
	}
	if v := o.AttrString("label", ""); v != "account" {
		t.Errorf("AttrString = %v, want account", v)
	}
	if v := o.AttrString("initial", "fallback"); v != "fallback" {
		t.Errorf("AttrString wrong-type should fall back, got %v", v)
	}
	if v := o.AttrBool("allow_negative", false); !v {
		t.Error("AttrBool = false, want true")
	}
	pts := o.AttrPoints("curve")
	if len(pts) != 2 || pts[1].X != 1 {
		t.Errorf("AttrPoints = %v", pts)
	}
	if pts := o.AttrPoints("missing"); pts != nil {
		t.Error("expected nil for missing points attribute")
	}
}
