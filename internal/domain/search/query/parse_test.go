package query

import (
	"testing"
)

type wantTerm struct {
	text     string
	modifier Modifier
	phrase   bool
}

func assertTerms(t *testing.T, got []Term, want []wantTerm) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d terms %v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		g := got[i]
		if g.Text() != w.text || g.Modifier() != w.modifier || g.IsPhrase() != w.phrase {
			t.Errorf("term[%d] = {%q %s phrase=%v}, want {%q %s phrase=%v}",
				i, g.Text(), g.Modifier(), g.IsPhrase(), w.text, w.modifier, w.phrase)
		}
	}
}

func TestParse_ModifiersAndPhrase(t *testing.T) {
	got := Parse(`-how "now brown" +cow`)
	assertTerms(t, got, []wantTerm{
		{"now brown", Optional, true},
		{"how", Excluded, false},
		{"cow", Required, false},
	})
}

func TestParse_ModifierOnPhrase(t *testing.T) {
	got := Parse(`+"now brown" -"how now" cow`)
	assertTerms(t, got, []wantTerm{
		{"now brown", Required, true},
		{"how now", Excluded, true},
		{"cow", Optional, false},
	})
}

func TestParse_DetachedModifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []wantTerm
	}{
		{"plus", "+ cow", []wantTerm{{"cow", Optional, false}}},
		{"minus", "- cow", []wantTerm{{"cow", Optional, false}}},
		{"repeated", "+ - + cow", []wantTerm{{"cow", Optional, false}}},
		{"before phrase", `+ "brown cow"`, []wantTerm{{"brown cow", Optional, true}}},
		{"trailing", "cow +", []wantTerm{{"cow", Optional, false}}},
		{"inside quotes", `"+ now brown"`, []wantTerm{{"now brown", Optional, true}}},
		{"inside quotes after space", `" - now brown"`, []wantTerm{{"now brown", Optional, true}}},
		{"joins neighbours", "foo+ bar", []wantTerm{{"foobar", Optional, false}}},
		{"between words", "how - now", []wantTerm{{"how", Optional, false}, {"now", Optional, false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTerms(t, Parse(tt.input), tt.want)
		})
	}
}

func TestParse_WhitespaceCollapsed(t *testing.T) {
	got := Parse("  how\t\tnow \n  brown   cow ")
	assertTerms(t, got, []wantTerm{
		{"how", Optional, false},
		{"now", Optional, false},
		{"brown", Optional, false},
		{"cow", Optional, false},
	})
}

func TestParse_PunctuationStripped(t *testing.T) {
	got := Parse(`cow! (brown) +"now, brown." -...how?`)
	assertTerms(t, got, []wantTerm{
		{"now, brown", Required, true},
		{"cow", Optional, false},
		{"brown", Optional, false},
		{"how", Excluded, false},
	})
}

func TestParse_InnerPunctuationKept(t *testing.T) {
	got := Parse("e-mail node.js c++")
	assertTerms(t, got, []wantTerm{
		{"e-mail", Optional, false},
		{"node.js", Optional, false},
		{"c", Optional, false},
	})
}

func TestParse_Lowercased(t *testing.T) {
	got := Parse(`+Cow "Now Brown"`)
	if got[0].Raw() != "Now Brown" {
		t.Errorf("Raw() = %q, want original case", got[0].Raw())
	}
	if got[0].Text() != "now brown" {
		t.Errorf("Text() = %q, want lowercase", got[0].Text())
	}
	if got[1].Raw() != "Cow" || got[1].Text() != "cow" {
		t.Errorf("term[1] = %q/%q", got[1].Raw(), got[1].Text())
	}
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", `""`, `"  "`, "+ -", "!!! ???", `+"" -""`} {
		if got := Parse(in); len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want no terms", in, got)
		}
	}
}

func TestParse_UnbalancedQuote(t *testing.T) {
	got := Parse(`cow "brown now`)
	assertTerms(t, got, []wantTerm{
		{"brown now", Optional, true},
		{"cow", Optional, false},
	})
}

func TestParse_WordsAroundPhraseNotMerged(t *testing.T) {
	got := Parse(`how"now"cow`)
	assertTerms(t, got, []wantTerm{
		{"now", Optional, true},
		{"how", Optional, false},
		{"cow", Optional, false},
	})
}

func TestParse_Unicode(t *testing.T) {
	got := Parse("«Straße» -Ölkanne")
	assertTerms(t, got, []wantTerm{
		{"straße", Optional, false},
		{"ölkanne", Excluded, false},
	})
}

func TestTerm_String(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+cow", "+cow"},
		{"-cow", "-cow"},
		{"cow", "cow"},
		{`+"Brown Cow"`, `+"Brown Cow"`},
	}
	for _, tt := range tests {
		got := Parse(tt.input)
		if len(got) != 1 {
			t.Fatalf("Parse(%q) = %v", tt.input, got)
		}
		if got[0].String() != tt.want {
			t.Errorf("String() = %q, want %q", got[0].String(), tt.want)
		}
	}
}

func TestModifier_String(t *testing.T) {
	if Optional.String() != "optional" || Required.String() != "required" || Excluded.String() != "excluded" {
		t.Errorf("unexpected modifier names: %s %s %s", Optional, Required, Excluded)
	}
}

func TestFold(t *testing.T) {
	if Fold("HeLLo") != "hello" {
		t.Errorf("Fold(HeLLo) = %q", Fold("HeLLo"))
	}
	if Fold("ÉCOLE") != Fold("école") {
		t.Errorf("Fold(ÉCOLE) = %q, Fold(école) = %q", Fold("ÉCOLE"), Fold("école"))
	}
}
