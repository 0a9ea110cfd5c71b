package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalkner/meetcoach/internal/events"
)

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	assert.Nil(t, snap.Ingestion)
	assert.Nil(t, snap.Text)
	assert.Empty(t, snap.FiredByType)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestCollectorRecordsStreams(t *testing.T) {
	c := NewCollector()

	c.RecordEvent(StreamIngestion, 2*time.Millisecond, nil)
	c.RecordEvent(StreamIngestion, 4*time.Millisecond, []events.FeedbackType{events.TypeHostility})
	c.RecordEvent(StreamText, time.Millisecond, []events.FeedbackType{
		events.TypeClientIndecision,
		events.TypeSolutionUnderstood,
	})

	snap := c.Snapshot()
	require.NotNil(t, snap.Ingestion)
	assert.Equal(t, int64(2), snap.Ingestion.Events)
	assert.Equal(t, int64(1), snap.Ingestion.Fired)
	assert.Equal(t, int64(4000), snap.Ingestion.MaxHandlingUs)
	assert.InDelta(t, 3000, snap.Ingestion.AvgHandlingUs, 1)

	require.NotNil(t, snap.Text)
	assert.Equal(t, int64(1), snap.Text.Events)
	assert.Equal(t, int64(2), snap.Text.Fired)

	assert.Equal(t, int64(1), snap.FiredByType[string(events.TypeHostility)])
	assert.Equal(t, int64(1), snap.FiredByType[string(events.TypeClientIndecision)])
}
