// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package deployment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Controller runs one deployment at a time per instance (spec §5
// "the deployment controller runs sequentially"). It owns the current
// instance list, the cumulative deployment stats, and the live traffic
// split.
type Controller struct {
	Runtime            Runtime
	Events             *EventBus
	HealthCheckRetries int
	HealthCheckBackoff time.Duration
	TrafficShiftDelay  time.Duration
	CanaryMonitor      time.Duration
	RollbackOnFailure  bool

	mu               sync.Mutex
	currentInstances []types.ServiceInstance
	totalRequests    int
	failedRequests   int
	stats            types.DeploymentStats
}

// NewController constructs a Controller with spec defaults:
// healthCheckRetries≈3, backoff≈2s, canary monitor≈30s.
func NewController(runtime Runtime) *Controller {
	return &Controller{
		Runtime:            runtime,
		Events:             NewEventBus(),
		HealthCheckRetries: 3,
		HealthCheckBackoff: 2 * time.Second,
		TrafficShiftDelay:  5 * time.Second,
		CanaryMonitor:      30 * time.Second,
		RollbackOnFailure:  true,
	}
}

// TrackRequest is public: production traffic reports success/failure
// here during a deployment (spec §4.9).
func (c *Controller) TrackRequest(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	if !success {
		c.failedRequests++
	}
}

// GetStats returns {total, failed, successRate%}, defaulting successRate
// to 100 when total=0 (spec §4.9).
func (c *Controller) GetStats() types.DeploymentStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats.Total == 0 {
		return types.DeploymentStats{SuccessRate: 100}
	}
	rate := 100 * (1 - float64(c.stats.Failed)/float64(c.stats.Total))
	return types.DeploymentStats{Total: c.stats.Total, Failed: c.stats.Failed, SuccessRate: rate}
}

// Deploy runs the zero-downtime cut-over state machine for version under
// strategy (spec §4.9). A completed deployment leaves currentInstances
// pointing at the new version so the next Deploy starts from there.
func (c *Controller) Deploy(ctx context.Context, version string, strategy types.DeploymentStrategy) types.DeploymentResult {
	start := time.Now()

	c.mu.Lock()
	c.totalRequests = 0
	c.failedRequests = 0
	oldInstances := append([]types.ServiceInstance(nil), c.currentInstances...)
	c.mu.Unlock()

	c.Events.emit("deployment:started", map[string]interface{}{"version": version, "strategy": strategy})
	c.Events.emit("deployment:strategy", map[string]interface{}{"strategy": strategy})
	c.Events.emit("deployment:status", map[string]interface{}{"status": types.DeployInProgress})

	var (
		newInstances []types.ServiceInstance
		err          error
	)

	switch strategy {
	case types.StrategyRolling:
		newInstances, err = c.runRolling(ctx, version, oldInstances)
	case types.StrategyCanary:
		newInstances, err = c.runCanary(ctx, version, oldInstances)
	default:
		newInstances, err = c.runBlueGreen(ctx, version, oldInstances)
	}

	result := types.DeploymentResult{
		TotalRequests:    c.snapshotTotal(),
		FailedRequests:   c.snapshotFailed(),
		DeploymentTimeMs: time.Since(start).Milliseconds(),
	}

	c.mu.Lock()
	c.stats.Total++
	c.mu.Unlock()

	if err != nil {
		if c.RollbackOnFailure {
			c.rollback(ctx, newInstances, oldInstances)
		}
		c.mu.Lock()
		c.stats.Failed++
		c.mu.Unlock()

		result.Success = false
		result.FinalStatus = types.DeployFailed
		result.Error = err.Error()
		c.Events.emit("deployment:failed", map[string]interface{}{"version": version, "error": err.Error()})
		return result
	}

	c.mu.Lock()
	c.currentInstances = newInstances
	c.mu.Unlock()

	result.Success = true
	result.FinalStatus = types.DeployCompleted
	c.Events.emit("deployment:completed", map[string]interface{}{"version": version})
	c.Events.emit("deployment:status", map[string]interface{}{"status": types.DeployCompleted})
	return result
}

func (c *Controller) snapshotTotal() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRequests
}

func (c *Controller) snapshotFailed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failedRequests
}

// rollback stops any new instances and restores stopped old instances to
// healthy (spec §4.9 and §9's preserved ambiguity note: a prior-healthy
// version is always assumed restorable here).
func (c *Controller) rollback(ctx context.Context, newInstances, oldInstances []types.ServiceInstance) {
	c.Events.emit("deployment:rollback_started", nil)

	for _, inst := range newInstances {
		_ = c.Runtime.StopInstance(ctx, inst)
		c.Events.emit("instance:stopping", map[string]interface{}{"instance": inst.ID})
	}
	for i := range oldInstances {
		oldInstances[i].Status = types.InstanceHealthy
	}

	c.mu.Lock()
	c.currentInstances = oldInstances
	c.mu.Unlock()

	c.Events.emit("deployment:rollback_completed", nil)
}

// healthCheck retries Probe up to HealthCheckRetries times with a fixed
// back-off; a final failure marks the instance unhealthy and raises
// (spec §4.9).
func (c *Controller) healthCheck(ctx context.Context, instance *types.ServiceInstance) error {
	var lastErr error
	for attempt := 1; attempt <= c.HealthCheckRetries; attempt++ {
		c.Events.emit("health_check:attempt", map[string]interface{}{"instance": instance.ID, "attempt": attempt})

		healthy, err := c.Runtime.Probe(ctx, *instance)
		if err == nil && healthy {
			instance.Status = types.InstanceHealthy
			c.Events.emit("health_check:success", map[string]interface{}{"instance": instance.ID})
			return nil
		}
		lastErr = err

		if attempt < c.HealthCheckRetries {
			timer := time.NewTimer(c.HealthCheckBackoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return errs.Wrap(errs.Cancelled, "deployment.healthCheck", "cancelled during health check", ctx.Err())
			}
		}
	}

	instance.Status = types.InstanceUnhealthy
	c.Events.emit("health_check:failed", map[string]interface{}{"instance": instance.ID})
	return errs.Wrap(errs.Degraded, "deployment.healthCheck", fmt.Sprintf("instance %s failed health check", instance.ID), lastErr)
}

func (c *Controller) startAndWaitHealthy(ctx context.Context, version string, port int) (types.ServiceInstance, error) {
	inst, err := c.Runtime.StartInstance(ctx, version, port)
	if err != nil {
		return types.ServiceInstance{}, fmt.Errorf("deployment: start instance: %w", err)
	}
	c.Events.emit("instance:starting", map[string]interface{}{"instance": inst.ID})
	c.Events.emit("instance:started", map[string]interface{}{"instance": inst.ID})

	if err := c.healthCheck(ctx, &inst); err != nil {
		return inst, err
	}
	return inst, nil
}

func (c *Controller) stopInstances(ctx context.Context, instances []types.ServiceInstance) {
	for _, inst := range instances {
		inst.Status = types.InstanceStopping
		c.Events.emit("instance:stopping", map[string]interface{}{"instance": inst.ID})
		_ = c.Runtime.StopInstance(ctx, inst)
		inst.Status = types.InstanceStopped
		c.Events.emit("instance:stopped", map[string]interface{}{"instance": inst.ID})
	}
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
