package naturalkey

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase passthrough",
			input:    "acai500ml",
			expected: "acai500ml",
		},
		{
			name:     "uppercase and spaces",
			input:    "ACAI  500ML",
			expected: "acai500ml",
		},
		{
			name:     "accents stripped",
			input:    "Açaí 500ml",
			expected: "acai500ml",
		},
		{
			name:     "punctuation dropped",
			input:    "P-123/B.2",
			expected: "p123b2",
		},
		{
			name:     "cedilla and tilde",
			input:    "Porção de Pães",
			expected: "porcaodepaes",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestVariationHash_Stable(t *testing.T) {
	a := VariationHash("P-001", "Tamanho")
	b := VariationHash("p001", "TAMANHO")
	if a != b {
		t.Errorf("expected equivalent inputs to hash equal, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestVariationHash_DistinguishesProducts(t *testing.T) {
	a := VariationHash("P-001", "Tamanho")
	b := VariationHash("P-002", "Tamanho")
	if a == b {
		t.Error("expected different products to produce different hashes")
	}
}

func TestVariationHash_SeparatorMatters(t *testing.T) {
	// The separator keeps "ab"+"c" and "a"+"bc" from colliding.
	a := VariationHash("ab", "c")
	b := VariationHash("a", "bc")
	if a == b {
		t.Error("expected separator to prevent concatenation collisions")
	}
}
