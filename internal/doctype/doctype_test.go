package doctype

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		raw     string
		want    Type
		wantErr bool
	}{
		{"bank_statement", BankStatement, false},
		{"Bank Statement", BankStatement, false},
		{"trial-balance", TrialBalance, false},
		{"  invoice  ", Invoice, false},
		{"", Auto, false},
		{"auto", Auto, false},
		{"resume", "", true},
		{"bank statements", "", true},
	}

	for _, tc := range cases {
		got, err := Parse(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %q", tc.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestConcrete(t *testing.T) {
	if Auto.Concrete() {
		t.Error("auto should not be concrete")
	}
	for _, dt := range All() {
		if !dt.Concrete() {
			t.Errorf("%s should be concrete", dt)
		}
	}
}
