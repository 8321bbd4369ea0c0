package token

import "go/token"

// Value carries a scanned token together with the source text it was
// scanned from and its position. Numbers and strings additionally carry
// their decoded literal value so that the compiler never has to re-parse a
// lexeme.
type Value struct {
	Raw    string    // exact source text of the token
	Pos    token.Pos // position of the first character
	Number float64   // populated when Token == NUMBER
	String string    // populated when Token == STRING (decoded, quotes stripped)
}
