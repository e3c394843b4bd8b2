package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostPort(t *testing.T) {
	require.Equal(t, "localhost:6310", hostPort(":6310"))
	require.Equal(t, "printserver:631", hostPort("printserver:631"))
	require.Equal(t, "localhostbogus", hostPort("bogus"))
}

func TestAtoiOr(t *testing.T) {
	require.Equal(t, 631, atoiOr("631", 6310))
	require.Equal(t, 6310, atoiOr("", 6310))
	require.Equal(t, 6310, atoiOr("abc", 6310))
	require.Equal(t, 6310, atoiOr("0", 6310))
}
