package lexer

import (
	"testing"

	"github.com/crisp-lang/crisp/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexMinimalTree(t *testing.T) {
	src := `(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`
	toks := Lex(src)
	if toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("expected final token to be EOF, got %v", toks[len(toks)-1].Kind)
	}
	if toks[0].Kind != token.LeftParen {
		t.Fatalf("expected first token to be LeftParen, got %v", toks[0].Kind)
	}
}

func TestLexLosslessRoundTrip(t *testing.T) {
	srcs := []string{
		`(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`,
		"(tree T ;; comment\n  (seq))",
		`(check (> .Health -1))`,
		`(- 5 3)`,
	}
	for _, src := range srcs {
		toks := Lex(src)
		var rebuilt string
		for _, tok := range toks {
			rebuilt += tok.FullText()
		}
		if rebuilt != src {
			t.Fatalf("round trip mismatch:\n want %q\n got  %q", src, rebuilt)
		}
	}
}

func TestNegativeLiteralVsMinusOperator(t *testing.T) {
	toks := Lex(`(> .Health -1)`)
	var intTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.IntLiteral {
			intTok = tok
		}
	}
	if intTok.Text != "-1" {
		t.Fatalf("expected negative literal -1, got %q", intTok.Text)
	}

	toks = Lex(`(- 5 3)`)
	significant := filterSignificant(toks)
	if significant[1].Kind != token.Minus {
		t.Fatalf("expected Minus operator as second token, got %v", significant[1].Kind)
	}
	if significant[2].Kind != token.IntLiteral || significant[2].Text != "5" {
		t.Fatalf("expected plain literal 5, got %v %q", significant[2].Kind, significant[2].Text)
	}
}

func filterSignificant(toks []token.Token) []token.Token {
	var out []token.Token
	for _, t := range toks {
		if t.Kind != token.EOF {
			out = append(out, t)
		}
	}
	return out
}

func TestLexMemberAndBlackboardAccess(t *testing.T) {
	toks := filterSignificant(Lex(`(.Health.Current $blackboard.target)`))
	foundMember, foundBB := false, false
	for _, tok := range toks {
		if tok.Kind == token.MemberAccess && tok.Text == ".Health.Current" {
			foundMember = true
		}
		if tok.Kind == token.BlackboardAccess && tok.Text == "$blackboard.target" {
			foundBB = true
		}
	}
	if !foundMember {
		t.Fatal("expected to find chained member access token")
	}
	if !foundBB {
		t.Fatal("expected to find blackboard access token")
	}
}

func TestLexEnumAndKeyword(t *testing.T) {
	toks := filterSignificant(Lex(`(parallel :all ::Status.Running)`))
	var gotKeyword, gotEnum bool
	for _, tok := range toks {
		if tok.Kind == token.Keyword && tok.Text == ":all" {
			gotKeyword = true
		}
		if tok.Kind == token.EnumLiteral && tok.Text == "::Status.Running" {
			gotEnum = true
		}
	}
	if !gotKeyword || !gotEnum {
		t.Fatalf("expected keyword and enum tokens, got %v", kinds(toks))
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks := filterSignificant(Lex(`(.Say "hi\n\"there\"")`))
	found := false
	for _, tok := range toks {
		if tok.Kind == token.StringLiteral {
			found = true
			if tok.Text != `"hi\n\"there\""` {
				t.Fatalf("unexpected string literal text %q", tok.Text)
			}
		}
	}
	if !found {
		t.Fatal("expected a string literal token")
	}
}

func TestLexIllegalCharacter(t *testing.T) {
	toks := filterSignificant(Lex(`(check (< .Health #30))`))
	var gotIllegal bool
	for _, tok := range toks {
		if tok.Kind == token.Illegal {
			gotIllegal = true
		}
	}
	if !gotIllegal {
		t.Fatal("expected an Illegal token for '#'")
	}
}

func TestLexKebabCaseIdentifier(t *testing.T) {
	toks := filterSignificant(Lex(`(reactive-select)`))
	if toks[1].Kind != token.Identifier || toks[1].Text != "reactive-select" {
		t.Fatalf("expected kebab-case identifier, got %v %q", toks[1].Kind, toks[1].Text)
	}
}
