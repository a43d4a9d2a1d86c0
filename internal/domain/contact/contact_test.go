package contact

import "testing"

func TestCanonicalRole(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"pm", "project_manager"},
		{"PM", "project_manager"},
		{"Project Manager", "project_manager"},
		{"BidList Project Manager", "project_manager"},
		{"HO", "homeowner"},
		{"home owner", "homeowner"},
		{"client", "homeowner"},
		{"GC", "general_contractor"},
		{"sub", "subcontractor"},
		{"super", "superintendent"},
		{"  Architect  ", "architect"},
		{"plumber", "plumber"}, // unknown labels pass through lowercased
	}
	for _, tc := range cases {
		if got := CanonicalRole(tc.in); got != tc.want {
			t.Errorf("CanonicalRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLooksLikeEmail(t *testing.T) {
	valid := []string{"jane@example.com", "a.b@c.co", "x@sub.domain.org"}
	for _, s := range valid {
		if !LooksLikeEmail(s) {
			t.Errorf("LooksLikeEmail(%q) = false, want true", s)
		}
	}
	invalid := []string{"jane doe", "@example.com", "jane@", "jane@localhost", ""}
	for _, s := range invalid {
		if LooksLikeEmail(s) {
			t.Errorf("LooksLikeEmail(%q) = true, want false", s)
		}
	}
}
