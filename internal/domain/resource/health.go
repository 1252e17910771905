package resource

import "strings"

// Health is the coarse state a diagram colours a node by.
type Health string

const (
	Healthy  Health = "healthy"
	Pending  Health = "pending"
	Failed   Health = "failed"
	Disabled Health = "disabled"
)

// HealthOf classifies a free-form status string reported by the load balancer.
func HealthOf(status string) Health {
	switch strings.ToLower(status) {
	case "running", "up":
		return Healthy
	case "stopped", "crashed":
		return Failed
	default:
		return Pending
	}
}

// Health of a stream; a disabled stream is Disabled whatever its status says.
func (s *Stream) Health() Health {
	if !s.Enabled {
		return Disabled
	}
	return HealthOf(s.Status)
}
