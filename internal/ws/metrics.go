package ws

import "github.com/prometheus/client_golang/prometheus"

var wsWatchers = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "rps_ws_watchers",
	Help: "Websocket connections currently watching a game",
})

func init() {
	prometheus.MustRegister(wsWatchers)
}
