package lexer_test

import (
	"testing"

	"github.com/scorelang/scorec/internal/lexer"
)

func tokensOf(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.New(src).Tokens()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return toks
}

func TestLexerBasicKinds(t *testing.T) {
	toks := tokensOf(t, `foo 12 3.5 "hi" #bar`)

	wantKinds := []lexer.TokenKind{
		lexer.WORD, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.SYMBOL, lexer.LINEEND,
	}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[0].Text != "foo" {
		t.Errorf("word text = %q, want foo", toks[0].Text)
	}
	if toks[1].Int != 12 {
		t.Errorf("int = %d, want 12", toks[1].Int)
	}
	if toks[2].Float != 3.5 {
		t.Errorf("float = %g, want 3.5", toks[2].Float)
	}
	if toks[3].Text != "hi" {
		t.Errorf("string text = %q, want hi", toks[3].Text)
	}
	if toks[4].Text != "bar" {
		t.Errorf("symbol text = %q, want bar", toks[4].Text)
	}
}

func TestLexerWordsLowercased(t *testing.T) {
	toks := tokensOf(t, "FooBar")
	if toks[0].Text != "foobar" {
		t.Errorf("got %q, want lowercased foobar", toks[0].Text)
	}
}

func TestLexerKeywordVsReservedWord(t *testing.T) {
	toks := tokensOf(t, "on end")
	if toks[0].Kind != lexer.KEYWORD || toks[0].Keyword != lexer.KwOn {
		t.Errorf("'on' should lex as KwOn keyword, got %v", toks[0])
	}
	// 'end' is reserved but not a keyword: usable as an identifier
	// wherever context allows, so it lexes as a WORD with a WordID.
	if toks[1].Kind != lexer.WORD || toks[1].Word != lexer.WordEnd {
		t.Errorf("'end' should lex as a WORD with WordEnd, got %v", toks[1])
	}
}

func TestLexerLineEndSuppression(t *testing.T) {
	// Leading newline emits nothing; duplicate newlines collapse to one.
	toks := tokensOf(t, "\n\nfoo\n\nbar\n")
	var kinds []lexer.TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []lexer.TokenKind{lexer.WORD, lexer.LINEEND, lexer.WORD, lexer.LINEEND}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kind %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestLexerLineContinuation(t *testing.T) {
	toks := tokensOf(t, "foo \\\nbar\n")
	var kinds []lexer.TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	// the continuation swallows the newline after it; no LINEEND appears
	// until the real end of the logical line.
	want := []lexer.TokenKind{lexer.WORD, lexer.WORD, lexer.LINEEND}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}

func TestLexerComment(t *testing.T) {
	toks := tokensOf(t, "foo -- this is ignored\nbar")
	if toks[0].Text != "foo" || toks[1].Kind != lexer.LINEEND || toks[2].Text != "bar" {
		t.Fatalf("comment not skipped correctly: %v", toks)
	}
}

func TestLexerPunctMaximalMunch(t *testing.T) {
	toks := tokensOf(t, "<= >= <> && ..")
	want := []lexer.Punct{lexer.PLE, lexer.PGE, lexer.PNE, lexer.PANDAND, lexer.PRANGE}
	for i, p := range want {
		if toks[i].Kind != lexer.PUNCT || toks[i].Punct != p {
			t.Errorf("token %d: got %v, want punct %s", i, toks[i], p)
		}
	}
}

func TestLexerTrailingDotIsNotPartOfTheNumber(t *testing.T) {
	// A dot only joins a number when a digit follows it; "1.2.3" therefore
	// lexes as FLOAT(1.2), PUNCT(.), INT(3), not a single malformed literal.
	toks := tokensOf(t, "1.2.3")
	if toks[0].Kind != lexer.FLOAT || toks[0].Float != 1.2 {
		t.Errorf("token 0 = %v, want FLOAT(1.2)", toks[0])
	}
	if toks[1].Kind != lexer.PUNCT || toks[1].Punct != lexer.PDOT {
		t.Errorf("token 1 = %v, want PUNCT(.)", toks[1])
	}
	if toks[2].Kind != lexer.INT || toks[2].Int != 3 {
		t.Errorf("token 2 = %v, want INT(3)", toks[2])
	}
}

func TestLexerUnknownPunctuationErrors(t *testing.T) {
	_, err := lexer.New("@").Tokens()
	if err == nil {
		t.Fatal("expected a LexError for unknown punctuation")
	}
	if _, ok := err.(*lexer.LexError); !ok {
		t.Fatalf("got %T, want *lexer.LexError", err)
	}
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	_, err := lexer.New(`"unterminated`).Tokens()
	if err == nil {
		t.Fatal("expected a LexError for EOF inside a string")
	}
}
