package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "a", Source: "recall"},
			want:     Label{Value: "a", Source: "recall"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "a", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "a", Source: "recall"},
		},
		{
			name:     "values accumulate with pipe, sources with comma",
			existing: Label{Value: "a", Source: "recall"},
			incoming: Label{Value: "b", Source: "rerank"},
			want:     Label{Value: "a|b", Source: "recall,rerank"},
		},
		{
			name:     "missing existing source takes incoming source",
			existing: Label{Value: "a"},
			incoming: Label{Value: "b", Source: "rule"},
			want:     Label{Value: "a|b", Source: "rule"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
