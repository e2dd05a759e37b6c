// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package velocity

import (
	"fmt"
	"math"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Alerts returns the structured alerts raised by m's trend flags (spec
// §4.8): critical for rapid_growth, warning for accelerating, info for
// decelerating. A measurement can raise more than one alert (rapid
// growth and accelerating are not mutually exclusive).
func Alerts(m types.VelocityMeasurement) []types.Alert {
	var alerts []types.Alert

	if m.RapidGrowth {
		alerts = append(alerts, types.Alert{
			AgentID:  m.AgentID,
			Severity: types.SeverityCritical,
			Flag:     types.TrendRapidGrowth,
			Message:  fmt.Sprintf("agent %s capability gain %.2f/day exceeds the capability gate", m.AgentID, m.CapabilityGainPerDay),
		})
	}
	if m.Accelerating {
		alerts = append(alerts, types.Alert{
			AgentID:  m.AgentID,
			Severity: types.SeverityWarning,
			Flag:     types.TrendAccelerating,
			Message:  fmt.Sprintf("agent %s capability gain is accelerating (%.2f/day)", m.AgentID, m.CapabilityGainPerDay),
		})
	}
	if m.Decelerating {
		alerts = append(alerts, types.Alert{
			AgentID:  m.AgentID,
			Severity: types.SeverityInfo,
			Flag:     types.TrendDecelerating,
			Message:  fmt.Sprintf("agent %s capability gain is decelerating (%.2f/day)", m.AgentID, m.CapabilityGainPerDay),
		})
	}

	return alerts
}

// DaysToViolation projects how many days remain until current
// capability-gain-per-day reaches the capability gate (10), assuming it
// keeps accelerating at accelerationRate. Only meaningful when
// accelerating and still below the gate; already violating linearises
// to 0 (spec §4.8).
func DaysToViolation(current, accelerationRate float64) float64 {
	if current >= capabilityGateThreshold {
		return 0
	}
	if accelerationRate <= 0 {
		return math.Inf(1)
	}
	return math.Log(capabilityGateThreshold/current) / math.Log(1+accelerationRate)
}
