package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(trimsTotal.WithLabelValues(ResultSuccess))
	ObserveTrim(ResultSuccess, 2*time.Second)
	if got := testutil.ToFloat64(trimsTotal.WithLabelValues(ResultSuccess)); got != before+1 {
		t.Fatalf("trims success = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(loginsTotal.WithLabelValues(ResultRejected))
	ObserveLogin(ResultRejected)
	if got := testutil.ToFloat64(loginsTotal.WithLabelValues(ResultRejected)); got != before+1 {
		t.Fatalf("logins rejected = %v", got)
	}

	before = testutil.ToFloat64(gateRejections)
	ObserveGateRejection()
	if got := testutil.ToFloat64(gateRejections); got != before+1 {
		t.Fatalf("gate rejections = %v", got)
	}
}
