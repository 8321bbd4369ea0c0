package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String())
	}
}

func TestLookupIdent(t *testing.T) {
	for lit, tok := range keywords {
		require.Equal(t, tok, LookupIdent(lit))
	}
	require.Equal(t, IDENT, LookupIdent("orchid"))
	require.Equal(t, IDENT, LookupIdent("a"))
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}
