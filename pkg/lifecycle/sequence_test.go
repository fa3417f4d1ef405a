package lifecycle

import "testing"

func TestOperationSequence(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		want  []string
	}{
		{"from zero", 0, []string{"0", "1", "2", "3"}},
		{"from offset", 41, []string{"41", "42", "43"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewOperationSequence(tt.start)
			for i, want := range tt.want {
				if got := seq.Next(); got != want {
					t.Errorf("Next() #%d = %q, want %q", i, got, want)
				}
			}
			if got, want := seq.Peek(), tt.start+int64(len(tt.want)); got != want {
				t.Errorf("Peek() = %d, want %d", got, want)
			}
		})
	}
}
