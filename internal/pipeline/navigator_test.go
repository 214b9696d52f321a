// internal/pipeline/navigator_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Gating(t *testing.T) {
	tests := []struct {
		name         string
		requested    int
		current      int
		wantAllowed  bool
		wantRedirect int
	}{
		{name: "current stage is reachable", requested: 2, current: 2, wantAllowed: true},
		{name: "earlier stage is reachable", requested: 1, current: 3, wantAllowed: true},
		{name: "next stage is locked", requested: 3, current: 2, wantAllowed: false, wantRedirect: 2},
		{name: "far future stage is locked", requested: 5, current: 1, wantAllowed: false, wantRedirect: 1},
		{name: "fresh project only reaches stage 1", requested: 1, current: 1, wantAllowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav, err := Resolve(tt.requested, tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, nav.Allowed)
			if !tt.wantAllowed {
				assert.Equal(t, tt.wantRedirect, nav.RedirectStage)
			}
		})
	}
}

func TestResolve_OutOfRange(t *testing.T) {
	_, err := Resolve(0, 1)
	assert.Error(t, err)

	_, err = Resolve(6, 5)
	assert.Error(t, err)
}
