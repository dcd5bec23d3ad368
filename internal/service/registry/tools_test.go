package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpsbridge/vpsbridge/pkg/types"
)

func TestParseCustomSpec(t *testing.T) {
	spec, err := parseCustomSpec(map[string]any{
		"cpu":          float64(4),
		"ram_gb":       float64(8),
		"disk_gb":      float64(100),
		"bandwidth_tb": float64(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, spec.CPU)
	assert.Equal(t, 8, spec.RAMInGB)
	assert.Equal(t, 100, spec.DiskInGB)
	assert.Equal(t, 5, spec.BandwidthInTB)
}

func TestParseCustomSpecPartial(t *testing.T) {
	spec, err := parseCustomSpec(map[string]any{"cpu": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, spec.CPU)
	assert.Zero(t, spec.RAMInGB)
}

func TestParseCustomSpecRejectsBadFields(t *testing.T) {
	_, err := parseCustomSpec(map[string]any{
		"cpu":     "four",
		"storage": float64(100),
	})
	require.Error(t, err)

	var toolErr *types.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, types.ErrInvalidArguments, toolErr.Kind)

	var fields []string
	for _, f := range toolErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"custom.cpu", "custom.storage"}, fields)
}
