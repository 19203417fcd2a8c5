package sanitizer

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Cozy Loft  ",
			want:  "Cozy Loft",
		},
		{
			name:  "multiple spaces between words",
			input: "Cozy    Loft",
			want:  "Cozy Loft",
		},
		{
			name:  "tabs and newlines",
			input: "Cozy\t\r\nLoft",
			want:  "Cozy Loft",
		},
		{
			name:  "control characters dropped",
			input: "Cozy\x00 Lo\x07ft",
			want:  "Cozy Loft",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Spa™ ",
			want:  "Café & Spa™",
		},
		{
			name:  "non latin characters",
			input: " דירה בתל אביב ",
			want:  "דירה בתל אביב",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeTitle(got); again != got {
				t.Errorf("NormalizeTitle not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single paragraph",
			input: "  Bright   room  ",
			want:  "Bright room",
		},
		{
			name:  "paragraphs kept",
			input: "Bright room\n\nClose to the beach",
			want:  "Bright room\n\nClose to the beach",
		},
		{
			name:  "blank line runs squeezed",
			input: "\n\nBright room\r\n\r\n\r\n  \nClose to the beach\n\n",
			want:  "Bright room\n\nClose to the beach",
		},
		{
			name:  "line breaks without blank lines",
			input: "Line one\nLine two",
			want:  "Line one\nLine two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDescription(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeDescription(got); again != got {
				t.Errorf("NormalizeDescription not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"hello\t\tworld", "hello world"},
		{"hello\n\nworld", "hello world"},
		{"   ", ""},
		{"a", "a"},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
