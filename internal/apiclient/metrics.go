package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolpay",
		Subsystem: "console",
		Name:      "token_refresh_total",
		Help:      "Access credential renewals by outcome.",
	}, []string{"outcome"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolpay",
		Subsystem: "console",
		Name:      "api_errors_total",
		Help:      "API calls that failed after credential handling, by class.",
	}, []string{"class"})
)

const (
	outcomeSuccess        = "success"
	outcomeFailed         = "failed"
	outcomeNoRefreshToken = "no_refresh_token"
	outcomeAlreadyRotated = "already_rotated"
	outcomeDiscarded      = "discarded"
)
