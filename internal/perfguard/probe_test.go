package perfguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeAllBoundsConcurrencyAndRecordsOutcomes(t *testing.T) {
	reg := NewRegistry()
	reg.Get("toolA")
	reg.Get("toolB")
	reg.Get("toolC")

	err := reg.ProbeAll(context.Background(), 2, func(ctx context.Context, name string) error {
		if name == "toolB" {
			return errors.New("probe failed")
		}
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, int64(1), reg.Get("toolA").TotalCalls)
	require.Equal(t, LevelPartial, reg.Get("toolB").Level)
	require.Equal(t, LevelFull, reg.Get("toolC").Level)
}
