package textnorm

import (
	"errors"
	"testing"

	"github.com/krankdata/krank/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Normal text", "Normal text"},
		{"multiple spaces", "Text  with   multiple   spaces", "Text with multiple spaces"},
		{"newlines", "Text\nwith\nnewlines", "Text with newlines"},
		{"tabs", "Text\twith\ttabs", "Text with tabs"},
		{"leading trailing", "  Leading and trailing  ", "Leading and trailing"},
		{"mixed whitespace", "Mixed\n  whitespace\t\t  types  ", "Mixed whitespace types"},
		{"surrounding double quotes", "“Double curly quotes”", "Double curly quotes"},
		{"surrounding single quotes", "‘Single curly quotes’", "Single curly quotes"},
		{"internal curly quotes", "Mixed “left” and ‘right’ quotes", `Mixed "left" and 'right' quotes`},
		{"internal quoted phrase", "Text with “quoted phrase” inside", `Text with "quoted phrase" inside`},
		{"ellipsis", "Text with… ellipsis", "Text with... ellipsis"},
		{"multiple ellipses", "Multiple… ellipses… here", "Multiple... ellipses... here"},
		{"en dash", "pages 3–5", "pages 3-5"},
		{"em dash", "a dream — then waking", "a dream - then waking"},
		{"nbsp", "non breaking", "non breaking"},
		{"surrounding straight quotes", `"I was flying."`, "I was flying."},
		{"nested quotes", `"'I was flying.'"`, "I was flying."},
		{"unbalanced quotes kept", `"I said "hi`, `"I said "hi`},
		{"mojibake accent", "cafÃ©", "café"},
		{"mojibake quote", "Itâ€™s a dream", "It's a dream"},
		{"genuine accent untouched", "café", "café"},
		{"control chars dropped", "ding\x07 dong", "ding dong"},
		{"empty", "", ""},
		{"whitespace only", "   \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Normalizing already-normalized text must be a no-op.
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Normal text",
		"  spaced\tout  ",
		"“Quoted dream”",
		`"'nested'"`,
		"cafÃ© with… friends",
		"café",
		"ID,Text\n1,é",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Second Normalize(%q) failed: %v", once, err)
		}
		if once != twice {
			t.Errorf("Not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_Windows1252Bytes(t *testing.T) {
	// Raw 0xE9 is invalid UTF-8 but means é in windows-1252.
	got, err := Normalize("caf\xe9")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != "café" {
		t.Errorf("Expected café, got %q", got)
	}
}

func TestNormalize_UndecodableByte(t *testing.T) {
	// 0x81 has no windows-1252 mapping.
	_, err := Normalize("bad\x81byte")
	var encErr *model.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected EncodingError, got %v", err)
	}
	if encErr.Offset != 3 {
		t.Errorf("Expected offset 3, got %d", encErr.Offset)
	}
}
