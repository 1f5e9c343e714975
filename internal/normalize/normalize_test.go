package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "JUAN PÉREZ", "juan perez"},
		{"diacritics stripped", "José Raúl Mulino", "jose raul mulino"},
		{"honorific with period", "Dr. Juan Pérez", "juan perez"},
		{"honorific without period", "Dra Ana Díaz", "ana diaz"},
		{"political title", "Presidente José Raúl Mulino", "jose raul mulino"},
		{"honorific inside word is kept", "Pedro Droguería", "pedro drogueria"},
		{"punctuation dropped", "ACME, S.A.", "acme sa"},
		{"whitespace collapsed", "  Ana   Díaz  ", "ana diaz"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"digits preserved", "Canal 13", "canal 13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.in); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNameIsIdempotent(t *testing.T) {
	in := "Dr. José Raúl Mulino"
	once := Name(in)
	twice := Name(once)
	if once != twice {
		t.Errorf("Name not idempotent: %q -> %q -> %q", in, once, twice)
	}
}

func TestStripDescriptor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ana Díaz (hermana)", "Ana Díaz"},
		{"Grupo Eleta (accionista mayoritario)", "Grupo Eleta"},
		{"Ana Díaz", "Ana Díaz"},
		{"  Ana Díaz  ", "Ana Díaz"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripDescriptor(tt.in); got != tt.want {
			t.Errorf("StripDescriptor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
