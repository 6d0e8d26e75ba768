package netmon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmond_netlink_messages_total",
		Help: "Netlink messages received, by message type",
	}, []string{"type"},
	)

	promDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmond_netlink_messages_dropped_total",
		Help: "Netlink messages discarded without being applied",
	}, []string{"reason"},
	)

	promFramingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netmond_netlink_framing_errors_total",
		Help: "Malformed netlink message headers skipped by the read loop",
	})

	promOverruns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netmond_netlink_overruns_total",
		Help: "Kernel notifications lost because the socket buffer was full",
	})

	promEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmond_interface_events_total",
		Help: "Interface change events emitted to subscribers",
	}, []string{"type"},
	)

	promInterfaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netmond_interfaces",
		Help: "Interfaces currently known to the monitor",
	})

	promSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netmond_subscribers",
		Help: "Active event subscribers",
	})
)
