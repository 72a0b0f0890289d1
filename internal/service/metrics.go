package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	gameOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_game_operations_total",
			Help: "Lifecycle operations by name and outcome",
		},
		[]string{"op", "result"},
	)
	escrowVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_escrow_volume_total",
			Help: "Value moved into and out of game escrow",
		},
		[]string{"direction"},
	)
	gamesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_games_settled_total",
			Help: "Games that reached a terminal status",
		},
		[]string{"status"},
	)
	weeklyRewards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_weekly_rewards_total",
			Help: "Weekly reward value distributed from the treasury and claimed by players",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(gameOps)
	prometheus.MustRegister(escrowVolume)
	prometheus.MustRegister(gamesSettled)
	prometheus.MustRegister(weeklyRewards)
}

func observeOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gameOps.WithLabelValues(op, result).Inc()
}
