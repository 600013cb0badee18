package nlp

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"simple lowercase", "leather tote bag", []string{"leather", "tote", "bag"}},
		{"uppercase input", "Leather TOTE", []string{"leather", "tote"}},
		{"punctuation", "eco-friendly, organic!", []string{"eco", "friendly", "organic"}},
		{"price tokens", "shoes $30 to $60", []string{"shoes", "30", "to", "60"}},
		{"extra whitespace", "  tote   bag  ", []string{"tote", "bag"}},
		{"only symbols", "!@#$%", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		minLen int
		want   []string
	}{
		{"drops stopwords", []string{"the", "leather", "and", "tote"}, 2, []string{"leather", "tote"}},
		{"drops short tokens", []string{"ab", "bag", "xy"}, 2, []string{"bag"}},
		{"drops numeric tokens", []string{"30", "jackets", "12345"}, 2, []string{"jackets"}},
		{"preserves order", []string{"vegan", "leather", "tote"}, 2, []string{"vegan", "leather", "tote"}},
		{"empty input", []string{}, 2, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input, tt.minLen)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Clean(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeAndClean(t *testing.T) {
	got := TokenizeAndClean("Show me the BEST shoes under $50", 2)
	want := []string{"show", "best", "shoes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizeAndClean = %v, want %v", got, want)
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("the") {
		t.Error("expected 'the' to be a stopword")
	}
	if IsStopword("leather") {
		t.Error("did not expect 'leather' to be a stopword")
	}
}
