package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Interaction outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Interaction paths.
const (
	PathLLM  = "llm"
	PathDice = "dice"
)

var (
	// interactions counts interaction attempts by engine path and outcome.
	interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrator_interactions_total",
			Help: "Interactions processed by the narrator engine.",
		},
		[]string{"path", "outcome"},
	)

	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrator_llm_request_duration_seconds",
			Help:    "Latency of completion provider calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrator_llm_tokens_total",
			Help: "Tokens reported by completion providers.",
		},
		[]string{"provider"},
	)

	sceneTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrator_scene_transitions_total",
			Help: "Scene changes decided by the navigator, by reason.",
		},
		[]string{"reason"},
	)

	diceRolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrator_dice_rolls_total",
			Help: "Local dice rolls by resulting element.",
		},
		[]string{"element"},
	)
)

func init() {
	prometheus.MustRegister(interactions, llmLatency, llmTokens, sceneTransitions, diceRolls)
}

// ObserveInteraction counts one interaction attempt.
func ObserveInteraction(path, outcome string) {
	interactions.WithLabelValues(path, outcome).Inc()
}

// ObserveLLMCall records latency and token usage of a provider call.
func ObserveLLMCall(provider string, seconds float64, tokens int) {
	llmLatency.WithLabelValues(provider).Observe(seconds)
	if tokens > 0 {
		llmTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// ObserveTransition counts a scene change.
func ObserveTransition(reason string) {
	sceneTransitions.WithLabelValues(reason).Inc()
}

// ObserveDiceRoll counts a local roll.
func ObserveDiceRoll(element string) {
	diceRolls.WithLabelValues(element).Inc()
}
