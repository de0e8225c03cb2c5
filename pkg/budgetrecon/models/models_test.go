package models

import (
	"reflect"
	"testing"
)

func TestSourcesCell(t *testing.T) {
	tests := []struct {
		sources  []string
		expected string
	}{
		{nil, ""},
		{[]string{"ambev"}, `["ambev"]`},
		{[]string{"acme; filial", "acme"}, `["acme; filial","acme"]`},
	}
	for _, tt := range tests {
		got := SourcesCell(tt.sources)
		if got != tt.expected {
			t.Errorf("SourcesCell(%v) = %q, expected %q", tt.sources, got, tt.expected)
		}
		if back := ParseSources(got); !reflect.DeepEqual(back, tt.sources) {
			t.Errorf("ParseSources(%q) = %v, expected %v", got, back, tt.sources)
		}
	}
}

func TestParseSourcesHandEdited(t *testing.T) {
	got := ParseSources("nov a; nov b")
	expected := []string{"nov a", "nov b"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if got := ParseSources("[broken"); !reflect.DeepEqual(got, []string{"[broken"}) {
		t.Errorf("Expected the raw cell back, got %v", got)
	}
}

func TestComparisonValuesFollowHeader(t *testing.T) {
	r := ComparisonRow{Client: "ambev", Year: 2024, Month: 4, Budget: 10, Importacao: 1, Exportacao: 2, Cabotagem: 3}
	values := r.Values()
	if len(values) != len(ComparisonHeader) {
		t.Fatalf("Expected %d values, got %d", len(ComparisonHeader), len(values))
	}
	for i, h := range ComparisonHeader {
		if h == ColAno && values[i] != 2024 {
			t.Errorf("Expected %s to hold the year, got %v", ColAno, values[i])
		}
	}
}
