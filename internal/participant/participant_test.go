package participant

import (
	"errors"
	"testing"
)

func TestToURN(t *testing.T) {
	got := ToURN("51824753556")
	want := ID("urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556")
	if got != want {
		t.Errorf("ToURN() = %s, want %s", got, want)
	}

	if ToURN("51824753556") != ToURN("51824753556") {
		t.Error("ToURN is not deterministic")
	}
}

func TestToURNInjective(t *testing.T) {
	numbers := []string{"51824753556", "51824753557", "11111111111", "5182475355", "051824753556"}
	seen := make(map[ID]string)
	for _, n := range numbers {
		id := ToURN(n)
		if prev, ok := seen[id]; ok {
			t.Fatalf("ToURN(%q) == ToURN(%q)", n, prev)
		}
		seen[id] = n
		if id.BusinessNumber() != n {
			t.Errorf("BusinessNumber() = %q, want %q", id.BusinessNumber(), n)
		}
	}
}

func TestNewID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "51824753556", false},
		{"too short", "5182475355", true},
		{"too long", "518247535560", true},
		{"letters", "5182475355a", true},
		{"spaces", "51 824 753 556", true},
		{"path traversal", "../../../etc", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBusinessNumber) {
					t.Fatalf("expected ErrInvalidBusinessNumber, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != ToURN(tt.input) {
				t.Errorf("NewID() = %s, want %s", id, ToURN(tt.input))
			}
		})
	}
}

func TestParseURN(t *testing.T) {
	id, err := ParseURN("urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.BusinessNumber() != "51824753556" {
		t.Errorf("BusinessNumber() = %s", id.BusinessNumber())
	}

	for _, bad := range []string{
		"urn:oasis:names:tc:ebcore:partyid-type:iso6523:0088::51824753556",
		"urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::abc",
		"51824753556",
	} {
		if _, err := ParseURN(bad); !errors.Is(err, ErrInvalidURN) {
			t.Errorf("ParseURN(%q): expected ErrInvalidURN, got %v", bad, err)
		}
	}
}

func TestPartyIdentifier(t *testing.T) {
	p, err := ParsePartyIdentifier("0151:51824753556")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.URN() != string(ToURN("51824753556")) {
		t.Errorf("URN() = %s, want %s", p.URN(), ToURN("51824753556"))
	}

	for _, bad := range []string{"51824753556", ":51824753556", "0151:"} {
		if _, err := ParsePartyIdentifier(bad); err == nil {
			t.Errorf("ParsePartyIdentifier(%q): expected error", bad)
		}
	}
}
