package backup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerDefaults(t *testing.T) {
	m, err := NewManager(newSourceDB(t), filepath.Join(t.TempDir(), "b"), 10, false, nil)
	require.NoError(t, err)

	s, err := NewScheduler(m, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s.Start()
	s.Stop(context.Background())
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	m, err := NewManager(newSourceDB(t), t.TempDir(), 10, false, nil)
	require.NoError(t, err)

	_, err = NewScheduler(m, nil, "every tuesday")
	assert.Error(t, err)
}
