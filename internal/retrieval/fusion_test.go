package retrieval

import (
	"math"
	"testing"
)

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{
			name:   "spread rescaled to unit interval",
			scores: []float64{2, 4, 6},
			want:   []float64{0, 0.5, 1},
		},
		{
			name:   "all equal maps to one",
			scores: []float64{3.7, 3.7, 3.7},
			want:   []float64{1, 1, 1},
		},
		{
			name:   "single score maps to one",
			scores: []float64{0.42},
			want:   []float64{1},
		},
		{
			name:   "negative scores",
			scores: []float64{-1, 0, 1},
			want:   []float64{0, 0.5, 1},
		},
		{
			name:   "empty",
			scores: nil,
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minMaxNormalize(tt.scores)
			for i := range tt.want {
				if math.Abs(tt.scores[i]-tt.want[i]) > 1e-9 {
					t.Errorf("scores[%d] = %v, want %v", i, tt.scores[i], tt.want[i])
				}
			}
		})
	}
}

func TestWeightedSumFuser(t *testing.T) {
	f := WeightedSumFuser{VectorWeight: 0.7, LexicalWeight: 0.3}

	if got := f.Fuse(1, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("Fuse(1,1) = %v, want 1", got)
	}
	if got := f.Fuse(1, 0); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Fuse(1,0) = %v, want 0.7", got)
	}
	if got := f.Fuse(0, 0); got != 0 {
		t.Errorf("Fuse(0,0) = %v, want 0", got)
	}
}
