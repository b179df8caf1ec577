package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ViewRecorded()
	c.ViewRecorded()
	c.SlugConflict()
	c.PreviewFailed("timeout")
	c.UploadRejected("resume")
	c.CacheResult(true)
	c.CacheResult(false)
	c.CacheResult(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.viewsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.slugConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.previewFailures.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploadsRejected.WithLabelValues("resume")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}
