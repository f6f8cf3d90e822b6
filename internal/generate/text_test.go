package generate

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Solar farm opens.  ", "Solar farm opens."},
		{"bold", "Helios opens <b>Riverton</b> farm", "Helios opens Riverton farm"},
		{"entities", "R&amp;D spend &quot;doubled&quot;", `R&D spend "doubled"`},
		{"bare ampersand", "Q&A session", "Q&A session"},
		{"script", "Hi<script>alert(1)</script> there", "Hi there"},
		{"breaks", "<p>First line</p><p>Second   line</p>", "First line\nSecond line"},
		{"br", "a<br>b<br/>c", "a\nb\nc"},
		{"less than", "costs < $5M", "costs < $5M"},
		{"angle before word", "Winds stayed <Category 3 the whole night, officials said.", "Winds stayed <Category 3 the whole night, officials said."},
		{"comparison", "Ratio of deaths a<b in the report.", "Ratio of deaths a<b in the report."},
		{"digits", "turnout 3<4 percent", "turnout 3<4 percent"},
		{"unknown tag kept", "<Org 1> denies it", "<Org 1> denies it"},
		{"stray angle beside markup", "x <b>bold</b> and a<b and 3<4", "x bold and a<b and 3<4"},
		{"comment", "before<!-- note -->after", "beforeafter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
