package metrics

import (
	"errors"
	"testing"

	metrictestutil "github.com/caesium-cloud/cimon/internal/metrics/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type MetricsSuite struct {
	suite.Suite
	registry *prometheus.Registry
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsSuite))
}

func (s *MetricsSuite) SetupTest() {
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(Collectors()...)
}

func (s *MetricsSuite) TestSyncRunsTotalIncrements() {
	SyncRunsTotal.WithLabelValues("GITHUB_ACTIONS", "ok").Inc()
	SyncRunsTotal.WithLabelValues("JENKINS", "error").Inc()
	SyncRunsTotal.WithLabelValues("JENKINS", "error").Inc()

	val := metrictestutil.CounterValue(s.T(), SyncRunsTotal, "GITHUB_ACTIONS", "ok")
	s.GreaterOrEqual(val, float64(1))

	val = metrictestutil.CounterValue(s.T(), SyncRunsTotal, "JENKINS", "error")
	s.GreaterOrEqual(val, float64(2))
}

func (s *MetricsSuite) TestSyncDurationObserves() {
	before := metrictestutil.HistogramCount(s.T(), SyncDurationSeconds, "GITLAB_CI", "ok")
	SyncDurationSeconds.WithLabelValues("GITLAB_CI", "ok").Observe(1.5)
	s.Equal(before+1, metrictestutil.HistogramCount(s.T(), SyncDurationSeconds, "GITLAB_CI", "ok"))

	families, err := s.registry.Gather()
	s.Require().NoError(err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "cimon_sync_duration_seconds" {
			for _, m := range fam.GetMetric() {
				h := m.GetHistogram()
				if h != nil && h.GetSampleCount() > 0 {
					found = true
				}
			}
		}
	}
	s.True(found, "expected histogram sample")
}

func (s *MetricsSuite) TestPipelinesCachedGauge() {
	PipelinesCached.WithLabelValues("GITLAB_CI").Set(4)
	PipelinesCached.WithLabelValues("GITLAB_CI").Dec()

	s.Equal(float64(3), metrictestutil.GaugeValue(s.T(), PipelinesCached, "GITLAB_CI"))
}

func (s *MetricsSuite) TestActionsTotalIncrements() {
	ActionsTotal.WithLabelValues("JENKINS", "cancel", "error").Inc()

	val := metrictestutil.CounterValue(s.T(), ActionsTotal, "JENKINS", "cancel", "error")
	s.GreaterOrEqual(val, float64(1))
}

func (s *MetricsSuite) TestOutcome() {
	s.Equal("ok", Outcome(nil))
	s.Equal("error", Outcome(errors.New("boom")))
}
