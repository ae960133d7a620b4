package entity

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase",
			input:    "Tango Society",
			expected: "tango society",
		},
		{
			name:     "punctuation becomes spacing",
			input:    "The Dance-Hall, Cambridge",
			expected: "the dance hall cambridge",
		},
		{
			name:     "whitespace collapsed",
			input:    "  Milonga   del   Mar  ",
			expected: "milonga del mar",
		},
		{
			name:     "ampersand and slash",
			input:    "Smith & Jones / Partners",
			expected: "smith jones partners",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "punctuation only",
			input:    "...",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"milonga", "milonga", 0},
		{"milonga", "milonge", 1},
		{"practica", "practilonga", 4},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.expected {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestBestFuzzyMatch(t *testing.T) {
	candidates := []candidate{
		{name: "tango society boston", id: "org-1"},
		{name: "milonga del mar", id: "org-2"},
		{name: "blue room studio", id: "org-3"},
	}

	t.Run("close name matches", func(t *testing.T) {
		best, ok := bestFuzzyMatch("milonga del mer", candidates, 2, 5)
		if !ok {
			t.Fatal("expected a match")
		}
		if best.id != "org-2" {
			t.Errorf("matched %s, want org-2", best.id)
		}
	})

	t.Run("distance over budget", func(t *testing.T) {
		if _, ok := bestFuzzyMatch("completely different", candidates, 2, 5); ok {
			t.Error("expected no match")
		}
	})

	t.Run("short names never fuzzy match", func(t *testing.T) {
		short := []candidate{{name: "mar", id: "org-4"}}
		if _, ok := bestFuzzyMatch("mar", short, 2, 5); ok {
			t.Error("expected short name to be rejected")
		}
	})

	t.Run("closest of several wins", func(t *testing.T) {
		two := []candidate{
			{name: "blue room studio x", id: "two-edits"},
			{name: "blue room studios", id: "one-edit"},
		}
		best, ok := bestFuzzyMatch("blue room studio", two, 2, 5)
		if !ok {
			t.Fatal("expected a match")
		}
		if best.id != "one-edit" {
			t.Errorf("matched %s, want one-edit", best.id)
		}
	})
}
