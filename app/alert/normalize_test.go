package alert

import (
	"reflect"
	"testing"
)

func TestNormalizeKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"pre-split list", []string{"weber 45", "dcoe"}, []string{"weber 45", "dcoe"}},
		{"comma string", []string{"weber 45, dcoe ,solex"}, []string{"weber 45", "dcoe", "solex"}},
		{"drops empties", []string{" ", "", "weber", " ,, "}, []string{"weber"}},
		{"case-insensitive dedupe keeps first", []string{"Weber", "weber", "WEBER 45"}, []string{"Weber", "WEBER 45"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKeywords(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeKeywords(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	min := 300.0
	max := 100.0

	valid := Alert{ID: "alrt_1", Sources: []string{"tori"}, Keywords: []string{"weber"}}
	if err := Validate(&valid); err != nil {
		t.Errorf("Expected valid alert to pass, got %v", err)
	}

	tests := []struct {
		name  string
		alert *Alert
	}{
		{"nil alert", nil},
		{"missing id", &Alert{Sources: []string{"tori"}}},
		{"no sources", &Alert{ID: "alrt_1"}},
		{"empty keyword", &Alert{ID: "alrt_1", Sources: []string{"tori"}, Keywords: []string{" "}}},
		{"inverted bounds", &Alert{ID: "alrt_1", Sources: []string{"tori"}, PriceMin: &min, PriceMax: &max}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.alert); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
