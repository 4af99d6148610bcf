package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_JobGauge(t *testing.T) {
	m := Metrics{}

	before := testutil.ToFloat64(activeJobs)
	m.JobStarted()
	if got := testutil.ToFloat64(activeJobs); got != before+1 {
		t.Fatalf("gauge after start = %v, want %v", got, before+1)
	}
	m.JobFinished()
	if got := testutil.ToFloat64(activeJobs); got != before {
		t.Fatalf("gauge after finish = %v, want %v", got, before)
	}
}

func TestMetrics_ErrorCounter(t *testing.T) {
	m := Metrics{}

	c := codeGenErrors.WithLabelValues("remote_update")
	before := testutil.ToFloat64(c)
	m.ErrorRecorded("remote_update")
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}

func TestRecordWebhookRequest_LabelsByStatus(t *testing.T) {
	c := webhookReqs.WithLabelValues("POST", "200", "/api/v1/webhook")
	before := testutil.ToFloat64(c)
	RecordWebhookRequest("POST", 200, "/api/v1/webhook")
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}

func TestMetrics_CodeGenerated_NoPanic(t *testing.T) {
	m := Metrics{}
	m.CodeGenerated(250*time.Millisecond, true)
	m.CodeGenerated(2*time.Second, false)
}
