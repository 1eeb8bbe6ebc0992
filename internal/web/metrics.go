package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusgate_scans_total",
	Help: "Accepted scans by kind.",
}, []string{"kind"})

var verifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusgate_verify_failures_total",
	Help: "Rejected verifications by reason.",
}, []string{"reason"})
