package fileid

import "testing"

func TestNewIsUnique(t *testing.T) {
	const trials = 10000
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		id := New()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d trials: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "generated id", value: New(), want: true},
		{name: "empty", value: "", want: false},
		{name: "garbage", value: "not-a-file-id", want: false},
		{name: "truncated", value: New()[:20], want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
