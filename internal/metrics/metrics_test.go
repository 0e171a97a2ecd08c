package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistration verifies that all metrics are properly registered.
func TestMetricsRegistration(t *testing.T) {
	if AuthAttemptsTotal == nil {
		t.Error("AuthAttemptsTotal metric not registered")
	}
	if AuthFailuresTotal == nil {
		t.Error("AuthFailuresTotal metric not registered")
	}
	if SessionsCreatedTotal == nil {
		t.Error("SessionsCreatedTotal metric not registered")
	}
	if AuthURLsIssuedTotal == nil {
		t.Error("AuthURLsIssuedTotal metric not registered")
	}
	if CacheHitsTotal == nil {
		t.Error("CacheHitsTotal metric not registered")
	}
	if CacheMissesTotal == nil {
		t.Error("CacheMissesTotal metric not registered")
	}
}

// TestRecordAuthSuccess verifies that RecordAuthSuccess increments the counter.
func TestRecordAuthSuccess(t *testing.T) {
	initialValue := getCounterValue(AuthAttemptsTotal.WithLabelValues("osu", "success"))

	RecordAuthSuccess("osu")

	newValue := getCounterValue(AuthAttemptsTotal.WithLabelValues("osu", "success"))
	if newValue <= initialValue {
		t.Errorf("Expected counter to increment, got initial=%f, new=%f", initialValue, newValue)
	}
}

// TestRecordAuthFailure verifies that RecordAuthFailure increments both counters.
func TestRecordAuthFailure(t *testing.T) {
	initialAttempts := getCounterValue(AuthAttemptsTotal.WithLabelValues("osu", "failure"))
	initialFailures := getCounterValue(AuthFailuresTotal.WithLabelValues("osu", "csrf_mismatch"))

	RecordAuthFailure("osu", "csrf_mismatch")

	newAttempts := getCounterValue(AuthAttemptsTotal.WithLabelValues("osu", "failure"))
	newFailures := getCounterValue(AuthFailuresTotal.WithLabelValues("osu", "csrf_mismatch"))

	if newAttempts <= initialAttempts {
		t.Error("Expected AuthAttemptsTotal to increment")
	}
	if newFailures <= initialFailures {
		t.Error("Expected AuthFailuresTotal to increment")
	}
}

// TestRecordCacheHitMiss verifies the cache counters increment per kind.
func TestRecordCacheHitMiss(t *testing.T) {
	initialHits := getCounterValue(CacheHitsTotal.WithLabelValues("apisessiontoken"))
	initialMisses := getCounterValue(CacheMissesTotal.WithLabelValues("apisessiontoken"))

	RecordCacheHit("apisessiontoken")
	RecordCacheMiss("apisessiontoken")

	if getCounterValue(CacheHitsTotal.WithLabelValues("apisessiontoken")) <= initialHits {
		t.Error("Expected CacheHitsTotal to increment")
	}
	if getCounterValue(CacheMissesTotal.WithLabelValues("apisessiontoken")) <= initialMisses {
		t.Error("Expected CacheMissesTotal to increment")
	}
}

// getCounterValue extracts the current value of a counter.
func getCounterValue(counter prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
