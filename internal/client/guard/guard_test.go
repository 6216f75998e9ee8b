package guard

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/stretchr/testify/require"
)

func TestFlag_RejectsOverlap(t *testing.T) {
	var f Flag
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- f.Run(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	require.True(t, f.Busy())
	require.ErrorIs(t, f.Run(func() error { return nil }), common.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	require.False(t, f.Busy())
}

func TestFlag_ReleasesAfterError(t *testing.T) {
	var f Flag
	boom := errors.New("boom")

	require.ErrorIs(t, f.Run(func() error { return boom }), boom)
	require.NoError(t, f.Run(func() error { return nil }))
}
