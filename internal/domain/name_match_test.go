package domain_test

import (
	"testing"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "Mari Maasikas", "Mari Maasikas", true},
		{"case insensitive", "MARI MAASIKAS", "mari maasikas", true},
		{"word order ignored", "Maasikas Mari", "Mari Maasikas", true},
		{"bank punctuation ignored", "MAASIKAS, MARI", "Mari Maasikas", true},
		{"accents ignored", "Jürgen Õunapuu", "Jurgen Ounapuu", true},
		{"different person", "Mari Maasikas", "Jaan Tamm", false},
		{"extra middle name differs", "Mari Maasikas", "Mari Liis Maasikas", false},
		{"empty never matches", "", "", false},
		{"one side empty", "Mari Maasikas", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.NamesMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("NamesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	got := domain.NormalizeName("MAASIKAS, Mári ")
	if got != "maasikas mari" {
		t.Errorf("NormalizeName = %q, want %q", got, "maasikas mari")
	}
}
