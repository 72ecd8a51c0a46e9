package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidUsername(t *testing.T) {
	req := require.New(t)

	req.True(validUsername("alice"))
	req.True(validUsername("Alice_99"))
	req.True(validUsername("abc"))
	req.True(validUsername(strings.Repeat("a", 20)))

	req.False(validUsername("ab"))
	req.False(validUsername(strings.Repeat("a", 21)))
	req.False(validUsername("alice!"))
	req.False(validUsername("al ice"))
	req.False(validUsername(""))
}

func TestValidRoom(t *testing.T) {
	req := require.New(t)

	req.True(validRoom("lobby"))
	req.True(validRoom("go-devs_2024"))
	req.True(validRoom("x"))
	req.True(validRoom(strings.Repeat("r", 30)))

	req.False(validRoom(""))
	req.False(validRoom(strings.Repeat("r", 31)))
	req.False(validRoom("lobby!!"))
	req.False(validRoom("lob by"))
}

func TestValidMessage(t *testing.T) {
	req := require.New(t)

	req.True(validMessage("hi"))
	req.True(validMessage(strings.Repeat("m", 500)))

	// Length is counted in characters, not bytes
	req.True(validMessage(strings.Repeat("é", 500)))
	req.True(validMessage(strings.Repeat("消", 500)))

	req.False(validMessage(""))
	req.False(validMessage("   "))
	req.False(validMessage(strings.Repeat("m", 501)))
	req.False(validMessage(strings.Repeat("é", 501)))
}
