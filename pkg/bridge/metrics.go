package bridge

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odvcencio/perch/pkg/view"
)

var (
	metricCommandsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "bridge_commands_dropped_total",
		Help:      "View commands dropped because the UI channel was full.",
	})
	metricUserEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "bridge_user_events_dropped_total",
		Help:      "User events dropped because the forwarder channel was full.",
	})
)

// commandName returns a stable short name for logging, e.g. "ShowError".
func commandName(cmd view.Command) string {
	name := fmt.Sprintf("%T", cmd)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
