package schedule

import "testing"

func TestParseCell_Classification(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind TokenKind
	}{
		{"off day", "休(假)", KindOff},
		{"national holiday r-shift", "R(國)/0905G", KindNationalHolidayRShift},
		{"plain r-shift", "R/0905G", KindRShift},
		{"overtime only", "0905G(+2)", KindOvertime},
		{"empty", "", KindNoShift},
		{"whitespace only", "   ", KindNoShift},
		{"normal shift", "0905G", KindNormal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tok := ParseCell(c.in)
			if tok.Kind != c.kind {
				t.Fatalf("ParseCell(%q) kind = %v, want %v", c.in, tok.Kind, c.kind)
			}
		})
	}
}

func TestParseCell_OvertimeComposite(t *testing.T) {
	tok := ParseCell("R/0905G(+2)")
	if tok.Kind != KindComposite {
		t.Fatalf("expected Composite, got %v", tok.Kind)
	}
	if !tok.HasRShift() {
		t.Fatalf("expected HasRShift true")
	}
	if !tok.HasOvertime() || tok.OvertimeUnit != 2 {
		t.Fatalf("expected overtime unit 2, got %d", tok.OvertimeUnit)
	}
	if tok.HasNationalHolidayRShift() {
		t.Fatalf("expected HasNationalHolidayRShift false")
	}
}

func TestParseCell_NationalHolidayOvertimeComposite(t *testing.T) {
	tok := ParseCell("R(國)/0905G(+1)")
	if tok.Kind != KindComposite || !tok.HasNationalHolidayRShift() {
		t.Fatalf("expected national-holiday composite, got %+v", tok)
	}
	if tok.HasRShift() {
		t.Fatalf("expected HasRShift false for national-holiday composite")
	}
}

func TestParseCell_NeverPanics(t *testing.T) {
	inputs := []string{"", " ", "(假)", "R/", "R(國)/", "(+5)", "(+0)", "garbled()text", "休(假)R/0905G(+1)"}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseCell(%q) panicked: %v", in, r)
				}
			}()
			_ = ParseCell(in)
		}()
	}
}
