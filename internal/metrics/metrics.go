package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_uploads_total",
			Help: "Uploaded files by result.",
		},
		[]string{"result"},
	)

	chatRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_chat_replies_total",
			Help: "Chat replies by outcome.",
		},
		[]string{"outcome"},
	)

	llmLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfchat_llm_latency_ms",
			Help:    "Completion call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		},
		[]string{"model", "success"},
	)

	filesRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_files_removed_total",
			Help: "Backing file removals by reason and result.",
		},
		[]string{"reason", "result"},
	)
)

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(uploadsTotal, chatRepliesTotal, llmLatencyMs, filesRemovedTotal)
	})
}

func UploadObserved(result string) {
	uploadsTotal.WithLabelValues(norm(result)).Inc()
}

func ChatReply(outcome string) {
	chatRepliesTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveLLMCall(model string, latencyMs int64, success bool) {
	llmLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func FileRemoved(reason string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	filesRemovedTotal.WithLabelValues(norm(reason), result).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
