package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerifyRoundtrip(t *testing.T) {
	req := require.New(t)
	tokens := New("secret")

	tok, err := tokens.Issue("Alice", time.Hour)
	req.NoError(err)
	req.NotEmpty(tok)

	name, err := tokens.Verify(tok)
	req.NoError(err)
	req.Equal("alice", name) // normalized for case-insensitive comparison
}

func TestTokens_RejectsEmptyName(t *testing.T) {
	_, err := New("secret").Issue("", time.Hour)
	require.Error(t, err)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	tok, err := New("secret-a").Issue("alice", time.Hour)
	req.NoError(err)

	_, err = New("secret-b").Verify(tok)
	req.Error(err)
}

func TestTokens_RejectsExpired(t *testing.T) {
	req := require.New(t)
	tokens := New("secret")

	tok, err := tokens.Issue("alice", -time.Minute)
	req.NoError(err)

	_, err = tokens.Verify(tok)
	req.Error(err)
}
