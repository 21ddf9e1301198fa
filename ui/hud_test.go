package ui

import (
	"testing"
	"time"
)

func findField(t *testing.T, id string) (SectionDescriptor, FieldDescriptor) {
	t.Helper()
	for _, sec := range StatsSections() {
		for _, fd := range sec.Fields {
			if fd.ID == id {
				return sec, fd
			}
		}
	}
	t.Fatalf("no field %q", id)
	return SectionDescriptor{}, FieldDescriptor{}
}

func TestStatsFieldText(t *testing.T) {
	data := StatsData{
		Liquids:         512,
		Constraints:     12,
		MeanDensity:     998.25,
		MaxSpeed:        1.5,
		ConstraintError: 0.00126,
	}

	tests := []struct {
		id   string
		want string
	}{
		{"liquids", "512"},
		{"constraints", "12"},
		{"mean_density", "998.2"},
		{"max_speed", "1.500"},
		{"constraint_err", "0.0013"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, fd := findField(t, tt.id)
			if got := FieldText(fd, data); got != tt.want {
				t.Errorf("FieldText(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestStatsVisibility(t *testing.T) {
	sec, _ := findField(t, "mean_density")
	if sec.Visible(StatsData{}) {
		t.Error("fluid section visible without liquid particles")
	}
	if !sec.Visible(StatsData{Liquids: 1}) {
		t.Error("fluid section hidden with liquid particles")
	}

	_, fd := findField(t, "constraint_err")
	if fd.Visible(StatsData{}) {
		t.Error("constraint error shown without constraints")
	}
}

func TestBarRatio(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		rng   FieldRange
		want  float32
	}{
		{"inside", 0.05, FieldRange{Min: 0, Max: 0.1}, 0.5},
		{"below", -1, FieldRange{Max: 1}, 0},
		{"above", 2, FieldRange{Max: 1}, 1},
		{"empty range", 0.5, FieldRange{Min: 1, Max: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := barRatio(tt.value, tt.rng); got < tt.want-1e-6 || got > tt.want+1e-6 {
				t.Errorf("barRatio(%v, %v) = %v, want %v", tt.value, tt.rng, got, tt.want)
			}
		})
	}
}

func TestPerfText(t *testing.T) {
	tests := []struct {
		items float64
		want  string
	}{
		{0, "-"},
		{27, "27"},
		{1536, "1.5k"},
		{2.5e6, "2.5M"},
	}
	for _, tt := range tests {
		if got := itemsText(tt.items); got != tt.want {
			t.Errorf("itemsText(%v) = %q, want %q", tt.items, got, tt.want)
		}
	}
	if got := sharePct(time.Millisecond, 4*time.Millisecond); got != 25 {
		t.Errorf("sharePct = %v, want 25", got)
	}
	if got := sharePct(time.Millisecond, 0); got != 0 {
		t.Errorf("sharePct with no total = %v", got)
	}
}

func TestClampSpeed(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 5: 5, MaxSpeed: MaxSpeed, 99: MaxSpeed} {
		if got := clampSpeed(in); got != want {
			t.Errorf("clampSpeed(%d) = %d, want %d", in, got, want)
		}
	}
}
