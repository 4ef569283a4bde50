package execution_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/execution"
)

func TestStreamYieldsThenExits(t *testing.T) {
	m := newCountingExec(t)
	e := execution.New(m)
	st := e.IntoStream(nil)
	ctx := context.Background()

	v1, more, err := st.Next(ctx)
	require.NoError(t, err)
	require.True(t, more)
	i1, _ := v1.AsInt()
	assert.EqualValues(t, 1, i1)

	v2, more, err := st.Next(ctx)
	require.NoError(t, err)
	require.True(t, more)
	i2, _ := v2.AsInt()
	assert.EqualValues(t, 2, i2)

	v3, more, err := st.Next(ctx)
	require.NoError(t, err)
	assert.False(t, more)
	i3, _ := v3.AsInt()
	assert.EqualValues(t, 3, i3)
}
