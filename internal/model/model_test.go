package model

import "testing"

func TestMoreAccurateThan(t *testing.T) {
	tests := []struct {
		name     string
		r, best  *float64
		expected bool
	}{
		{"strictly better", Meters(10), Meters(30), true},
		{"worse", Meters(40), Meters(30), false},
		{"equal keeps first", Meters(30), Meters(30), false},
		{"unknown never replaces known", nil, Meters(30), false},
		{"known replaces unknown", Meters(500), nil, true},
		{"both unknown", nil, nil, false},
		{"zero is known", Meters(0), Meters(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reading{AccuracyMeters: tt.r}.MoreAccurateThan(Reading{AccuracyMeters: tt.best})
			if got != tt.expected {
				t.Errorf("MoreAccurateThan = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSlotMapHas(t *testing.T) {
	s := SlotMap{"lat": "", "lng": nil, "zero": 0, "no": false}
	if !s.Has("lat") {
		t.Error("empty string should count as present")
	}
	if s.Has("lng") {
		t.Error("nil value should count as absent")
	}
	if !s.Has("zero") || !s.Has("no") {
		t.Error("falsy non-nil values should count as present")
	}
	if s.Has("missing") {
		t.Error("missing key should count as absent")
	}
}

func TestSlotMapClone(t *testing.T) {
	var nilMap SlotMap
	c := nilMap.Clone()
	if c == nil || len(c) != 0 {
		t.Fatalf("expected empty non-nil clone, got %v", c)
	}

	orig := SlotMap{"a": 1}
	c = orig.Clone()
	c["b"] = 2
	if _, ok := orig["b"]; ok {
		t.Error("clone must not write through to the source map")
	}
}

func TestChatMessageValidate(t *testing.T) {
	if err := (ChatMessage{Role: RoleUser, Content: "hi"}).Validate(); err != nil {
		t.Errorf("user role: %v", err)
	}
	if err := (ChatMessage{Role: "robot"}).Validate(); err == nil {
		t.Error("expected error for unknown role")
	}
}
