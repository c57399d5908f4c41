package facematch

import "testing"

func TestNameKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice", "alice"},
		{"ALICE", "alice"},
		{"  alice  ", "alice"},
		{"Jan   Novák", "jan novák"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NameKey(tt.input)
			if result != tt.expected {
				t.Errorf("NameKey(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNameKey_ComposedAndDecomposedMatch(t *testing.T) {
	composed := "Ji\u0159\u00ed"
	decomposed := "Jir\u030ci\u0301"
	if NameKey(composed) != NameKey(decomposed) {
		t.Errorf("NameKey(%q) != NameKey(%q)", composed, decomposed)
	}
}

func TestCleanName(t *testing.T) {
	if got := CleanName("  Bob   Smith "); got != "Bob Smith" {
		t.Errorf("CleanName() = %q, want %q", got, "Bob Smith")
	}
}
