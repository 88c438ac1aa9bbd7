package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("x_"),
				WithHistogramBuckets([]float64{1, 10}),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.predictions.WithLabelValues("single", "1").Inc()

			Convey("Then collectors are registered under the namespace and prefix", func() {
				n, err := testutil.GatherAndCount(registry, "test_unit_x_predictions_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				So(m.RefreshInterval(), ShouldEqual, 3*time.Second)
			})

			Convey("And constant labels are attached", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
			})
		})

		Convey("When latency buckets are customised", func() {
			m := NewManager(WithHistogramBuckets([]float64{1, 10}), WithPrometheusRegistry(registry))
			m.batchSize.Observe(120)

			Convey("Then the batch size histogram keeps its own buckets", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var buckets int
				for _, f := range families {
					if f.GetName() == "turnover_batch_size_employees" {
						buckets = len(f.GetMetric()[0].GetHistogram().GetBucket())
					}
				}
				So(buckets, ShouldEqual, len(batchSizeBuckets))
			})
		})

		Convey("When metrics are disabled", func() {
			NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))

			Convey("Then nothing is registered on the given registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})

		Convey("When options receive zero values", func() {
			m := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "turnover")
				So(m.histogramBuckets, ShouldResemble, defaultBuckets)
				So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.riskLevels.WithLabelValues("High"))
			RecordPrediction("single", "1", "High")
			RecordPrediction("batch", "1", "High")

			Convey("Then the risk band counter moves", func() {
				So(testutil.ToFloat64(globalManager.riskLevels.WithLabelValues("High"))-before, ShouldEqual, 2)
			})
		})

		Convey("When recording zero unknown categories or batch rows", func() {
			before := testutil.ToFloat64(globalManager.unknownCategories.WithLabelValues("poste"))
			RecordUnknownCategories("poste", 0)
			RecordBatchRows("dropped", 0)
			RecordUnknownCategories("poste", 2)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.unknownCategories.WithLabelValues("poste"))-before, ShouldEqual, 2)
			})
		})

		Convey("When recording a failed inference", func() {
			before := testutil.ToFloat64(globalManager.inferenceErrors.WithLabelValues("remote"))
			RecordInference("remote", 12, errors.New("down"))
			RecordInference("remote", 3, nil)

			Convey("Then one error is counted", func() {
				So(testutil.ToFloat64(globalManager.inferenceErrors.WithLabelValues("remote"))-before, ShouldEqual, 1)
			})
		})

		Convey("When flagging the model", func() {
			UpdateModelLoaded(true)
			So(testutil.ToFloat64(globalManager.modelLoaded), ShouldEqual, 1)
			UpdateModelLoaded(false)
			So(testutil.ToFloat64(globalManager.modelLoaded), ShouldEqual, 0)
		})

		Convey("When exercising the remaining helpers", func() {
			So(func() {
				RecordPredictionError("batch", "validation")
				RecordFeatureLatency(0.2)
				RecordBatchRows("fused", 10)
				RecordBatchLatency(40)
				RecordBatchSize(120)
				UpdateBreakerState("model", 2)
				RecordBreakerRequest("model", "rejected")
				RecordPredictionLog("memory", "ok")
				UpdatePredictionLogsStored(5)
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
				RecordErrorByEndpoint("/predict", "POST", "validation")
				RecordErrorByType("validation", "low")
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1)
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(2)
				UpdateWorkerIdleCount(0)
				UpdateWorkerMessagesPerSecond(4.5)
				RecordWorkerProcessingLatency(0.7)
				RecordWorkerError()
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordPrediction("single", "0", "Low")

		Convey("Then it exposes service metrics only", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "turnover_"), ShouldBeTrue)
			}
		})
	})
}

func TestConcurrency(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueue)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					RecordQueueEnqueue()
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.queueEnqueue)-before, ShouldEqual, 1000)
		})
	})
}
