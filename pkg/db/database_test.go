package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestTruncateStatement_QuotesIdentifiers(t *testing.T) {
	got := TruncateStatement("order_lines", `odd"name`)
	assert.Equal(t, `TRUNCATE TABLE "order_lines", "odd""name" RESTART IDENTITY CASCADE`, got)
}
