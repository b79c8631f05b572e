package soundsystem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroadcastScopeFansOutToMultipleSubscribers(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlayMusic("a.ogg", true))

	subs, stop := sys.BroadcastScope(AnySource(), true, 10*time.Millisecond, 32, 64, 2)
	defer stop()
	require.Len(t, subs, 2)

	for i, sub := range subs {
		select {
		case window := <-sub:
			require.NotNil(t, window, "subscriber %d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d never received a scope window", i)
		}
	}
}
