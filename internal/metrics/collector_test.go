package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(OpTranslate, 10*time.Millisecond, nil)
	c.Record(OpTranslate, 30*time.Millisecond, errors.New("boom"))
	c.Record(OpStoreRead, 5*time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	tr := snap.Operations[0]
	assert.Equal(t, OpTranslate, tr.Name)
	assert.Equal(t, int64(2), tr.Count)
	assert.Equal(t, int64(1), tr.Failures)
	assert.Equal(t, int64(10), tr.MinTimeMs)
	assert.Equal(t, int64(30), tr.MaxTimeMs)
	assert.InDelta(t, 20.0, tr.AvgTimeMs, 0.001)

	assert.Equal(t, OpStoreRead, snap.Operations[1].Name)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	done := c.Track(OpQuiz)
	done(nil)

	assert.Empty(t, c.Snapshot().Operations)
}
