package lexer

import "fmt"

// Position is a 1-indexed (line, column) pair attached to every token, AST
// node, and emitted debug record.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// TokenKind tags the variant carried by a Token.
type TokenKind int

const (
	KEYWORD TokenKind = iota
	PUNCT
	FLOAT
	INT
	WORD
	STRING
	SYMBOL
	LINEEND
	EOF
	ILLEGAL
)

func (k TokenKind) String() string {
	switch k {
	case KEYWORD:
		return "KEYWORD"
	case PUNCT:
		return "PUNCT"
	case FLOAT:
		return "FLOAT"
	case INT:
		return "INT"
	case WORD:
		return "WORD"
	case STRING:
		return "STRING"
	case SYMBOL:
		return "SYMBOL"
	case LINEEND:
		return "LINEEND"
	case EOF:
		return "EOF"
	default:
		return "ILLEGAL"
	}
}

// Keyword is the closed set of words that can never be used as an
// identifier: operators and block heads.
type Keyword int

const (
	KwOn Keyword = iota
	KwElse
	KwThen
	KwAnd
	KwOr
	KwNot
	KwMod
)

var keywordTable = map[string]Keyword{
	"on":   KwOn,
	"else": KwElse,
	"then": KwThen,
	"and":  KwAnd,
	"or":   KwOr,
	"not":  KwNot,
	"mod":  KwMod,
}

var keywordNames = map[Keyword]string{
	KwOn: "on", KwElse: "else", KwThen: "then", KwAnd: "and",
	KwOr: "or", KwNot: "not", KwMod: "mod",
}

func (k Keyword) String() string { return keywordNames[k] }

// WordID tags a word token against the fixed reserved-word list. Reserved
// words remain ordinary identifiers wherever the grammar lets them; WordNone
// marks a word with no special meaning at all.
type WordID int

const (
	WordNone WordID = iota
	WordReturn
	WordEnd
	WordIf
	WordRepeat
	WordWith
	WordTo
	WordDown
	WordWhile
	WordCase
	WordOtherwise
	WordThe
	WordOf
	WordIn
	WordPut
	WordAfter
	WordBefore
	WordGlobal
	WordProperty
	WordType
	WordNumber
	WordInteger
	WordString
	WordPoint
	WordRect
	WordImage
)

var reservedTable = map[string]WordID{
	"return":    WordReturn,
	"end":       WordEnd,
	"if":        WordIf,
	"repeat":    WordRepeat,
	"with":      WordWith,
	"to":        WordTo,
	"down":      WordDown,
	"while":     WordWhile,
	"case":      WordCase,
	"otherwise": WordOtherwise,
	"the":       WordThe,
	"of":        WordOf,
	"in":        WordIn,
	"put":       WordPut,
	"after":     WordAfter,
	"before":    WordBefore,
	"global":    WordGlobal,
	"property":  WordProperty,
	"type":      WordType,
	"number":    WordNumber,
	"integer":   WordInteger,
	"string":    WordString,
	"point":     WordPoint,
	"rect":      WordRect,
	"image":     WordImage,
}

// Punct enumerates the lexer's punctuation/operator symbols, matched by
// greedy maximal munch.
type Punct int

const (
	PLE     Punct = iota // <=
	PGE                  // >=
	PNE                  // <>
	PDASHES              // --  (consumed as a comment marker, kept for completeness)
	PANDAND              // &&
	PRANGE               // ..
	PCOMMA               // ,
	PDOT                 // .
	PMINUS               // -
	PPLUS                // +
	PSLASH               // /
	PSTAR                // *
	PAMP                 // &
	PHASH                // #
	PLPAREN              // (
	PRPAREN              // )
	PLBRACK              // [
	PRBRACK              // ]
	PLBRACE              // {
	PRBRACE              // }
	PCOLON               // :
	PEQ                  // =
	PLT                  // <
	PGT                  // >
	PBACKSLASH           // \
)

var punctNames = map[Punct]string{
	PLE: "<=", PGE: ">=", PNE: "<>", PDASHES: "--", PANDAND: "&&", PRANGE: "..",
	PCOMMA: ",", PDOT: ".", PMINUS: "-", PPLUS: "+", PSLASH: "/", PSTAR: "*",
	PAMP: "&", PHASH: "#", PLPAREN: "(", PRPAREN: ")", PLBRACK: "[", PRBRACK: "]",
	PLBRACE: "{", PRBRACE: "}", PCOLON: ":", PEQ: "=", PLT: "<", PGT: ">", PBACKSLASH: "\\",
}

func (p Punct) String() string { return punctNames[p] }

// punctTable lists candidates longest-first so the lexer's maximal-munch
// scan never picks a short match over a longer one that also fits.
var punctTable = []struct {
	text string
	tok  Punct
}{
	{"<=", PLE}, {">=", PGE}, {"<>", PNE}, {"--", PDASHES}, {"&&", PANDAND}, {"..", PRANGE},
	{",", PCOMMA}, {".", PDOT}, {"-", PMINUS}, {"+", PPLUS}, {"/", PSLASH}, {"*", PSTAR},
	{"&", PAMP}, {"#", PHASH}, {"(", PLPAREN}, {")", PRPAREN}, {"[", PLBRACK}, {"]", PRBRACK},
	{"{", PLBRACE}, {"}", PRBRACE}, {":", PCOLON}, {"=", PEQ}, {"<", PLT}, {">", PGT}, {"\\", PBACKSLASH},
}

// Token is the unified lexical unit produced by the Lexer and consumed by
// the Parser.
type Token struct {
	Kind    TokenKind
	Pos     Position
	Text    string // raw lexeme: word text, string contents, numeric text
	Word    WordID
	Keyword Keyword
	Punct   Punct
	Int     int32
	Float   float64
}

func (t Token) String() string {
	switch t.Kind {
	case WORD:
		return fmt.Sprintf("WORD(%q)", t.Text)
	case STRING:
		return fmt.Sprintf("STRING(%q)", t.Text)
	case SYMBOL:
		return fmt.Sprintf("SYMBOL(#%s)", t.Text)
	case INT:
		return fmt.Sprintf("INT(%d)", t.Int)
	case FLOAT:
		return fmt.Sprintf("FLOAT(%g)", t.Float)
	case KEYWORD:
		return fmt.Sprintf("KEYWORD(%s)", t.Keyword)
	case PUNCT:
		return fmt.Sprintf("PUNCT(%s)", t.Punct)
	case LINEEND:
		return "LINEEND"
	case EOF:
		return "EOF"
	default:
		return "ILLEGAL(" + t.Text + ")"
	}
}

// IsWord reports whether this token is a WORD token whose lowercased text
// matches name exactly (word tokens are always already lowercased).
func (t Token) IsWord(name string) bool {
	return t.Kind == WORD && t.Text == name
}
