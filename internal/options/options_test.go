package options_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/internal/options"
)

type target struct {
	a int
	b string
}

func TestApplyRunsOptionsInOrder(t *testing.T) {
	tg := &target{}

	err := options.Apply(tg,
		options.NoError[*target](func(tg *target) { tg.a = 1 }),
		options.NoError[*target](func(tg *target) { tg.b = "x" }),
	)
	require.NoError(t, err)
	require.Equal(t, 1, tg.a)
	require.Equal(t, "x", tg.b)
}

func TestApplyStopsAtFirstError(t *testing.T) {
	tg := &target{}
	wantErr := errors.New("boom")

	err := options.Apply(tg,
		options.NoError[*target](func(tg *target) { tg.a = 1 }),
		options.New[*target](func(*target) error { return wantErr }),
		options.NoError[*target](func(tg *target) { tg.b = "unreached" }),
	)

	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, tg.a)
	require.Empty(t, tg.b)
}
