// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import "time"

// TrendFlag classifies how an agent's velocity compares to its prior
// window (spec §4.8).
type TrendFlag string

const (
	TrendAccelerating TrendFlag = "accelerating"
	TrendDecelerating TrendFlag = "decelerating"
	TrendStable       TrendFlag = "stable"
	TrendRapidGrowth  TrendFlag = "rapid_growth"
)

// AlertSeverity is the severity attached to a trend flag alert.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// VelocityWindow bounds the measurement period for a VelocityMeasurement.
type VelocityWindow struct {
	Start time.Time
	End   time.Time
	Days  float64
}

// VelocityMeasurement is the per-agent, per-window capability gain
// computation (spec §3/§4.8).
type VelocityMeasurement struct {
	AgentID             string
	Window              VelocityWindow
	SpeedGainPerDay     float64
	CostGainPerDay      float64
	ReliabilityGainPerDay float64
	CapabilityGainPerDay float64 // 0.4*speed + 0.3*cost + 0.3*reliability
	Accelerating        bool
	Decelerating        bool
	RapidGrowth         bool
	WithinCapabilityGates bool
}

// Alert is a structured notice raised for a trend flag (spec §4.8).
type Alert struct {
	AgentID  string
	Severity AlertSeverity
	Flag     TrendFlag
	Message  string
}
