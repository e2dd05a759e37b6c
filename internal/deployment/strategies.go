// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package deployment

import (
	"context"
	"fmt"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// runBlueGreen starts N new instances (N = len(old), at least 1), waits
// for all to be healthy, switches traffic atomically, then stops the old
// instances (spec §4.9 blue-green).
func (c *Controller) runBlueGreen(ctx context.Context, version string, old []types.ServiceInstance) ([]types.ServiceInstance, error) {
	n := len(old)
	if n == 0 {
		n = 1
	}

	newInstances := make([]types.ServiceInstance, 0, n)
	for i := 0; i < n; i++ {
		inst, err := c.startAndWaitHealthy(ctx, version, basePort+i)
		newInstances = append(newInstances, inst) // tracked even on failure so rollback can stop it
		if err != nil {
			return newInstances, errs.Wrap(errs.Transient, "deployment.runBlueGreen", fmt.Sprintf("instance %d", i), err)
		}
	}

	c.Events.emit("traffic:switching", map[string]interface{}{"version": version})
	c.Events.emit("traffic:switched", map[string]interface{}{"version": version, "percentage": 100})

	c.stopInstances(ctx, old)
	return newInstances, nil
}

// runRolling replaces old instances one at a time, gradually shifting
// traffic 25/50/75/100 between starting the replacement and stopping the
// original (spec §4.9 rolling). With no old instances, runs a single
// cycle targeting N=1.
func (c *Controller) runRolling(ctx context.Context, version string, old []types.ServiceInstance) ([]types.ServiceInstance, error) {
	if len(old) == 0 {
		inst, err := c.startAndWaitHealthy(ctx, version, basePort)
		if err != nil {
			return []types.ServiceInstance{inst}, fmt.Errorf("deployment: rolling initial instance: %w", err)
		}
		c.shiftTraffic(ctx, version, []int{25, 50, 75, 100})
		return []types.ServiceInstance{inst}, nil
	}

	newInstances := make([]types.ServiceInstance, 0, len(old))
	for i, oldInst := range old {
		newInst, err := c.startAndWaitHealthy(ctx, version, basePort+i)
		newInstances = append(newInstances, newInst) // tracked even on failure so rollback can stop it
		if err != nil {
			return newInstances, errs.Wrap(errs.Transient, "deployment.runRolling", fmt.Sprintf("replacement %d", i), err)
		}

		c.shiftTraffic(ctx, version, []int{25, 50, 75, 100})

		c.stopInstances(ctx, []types.ServiceInstance{oldInst})
	}
	return newInstances, nil
}

// runCanary starts a single canary instance, health checks it, routes
// 10% traffic, monitors for CanaryMonitor, then on healthy continues
// with the full blue-green rollout (spec §4.9 canary).
func (c *Controller) runCanary(ctx context.Context, version string, old []types.ServiceInstance) ([]types.ServiceInstance, error) {
	canary, err := c.startAndWaitHealthy(ctx, version, basePort)
	if err != nil {
		return []types.ServiceInstance{canary}, fmt.Errorf("deployment: canary instance: %w", err) // tracked even on failure so rollback can stop it
	}

	c.Events.emit("traffic:shifting", map[string]interface{}{"version": version, "percentage": 10})
	c.Events.emit("traffic:percentage", map[string]interface{}{"percentage": 10})

	if err := sleepOrCancel(ctx, c.CanaryMonitor); err != nil {
		return []types.ServiceInstance{canary}, fmt.Errorf("deployment: canary monitor: %w", err)
	}

	healthy, err := c.Runtime.Probe(ctx, canary)
	if err != nil || !healthy {
		return []types.ServiceInstance{canary}, fmt.Errorf("deployment: canary unhealthy after monitor window")
	}

	rest, err := c.runBlueGreen(ctx, version, old)
	if err != nil {
		return append([]types.ServiceInstance{canary}, rest...), err
	}
	return rest, nil
}

func (c *Controller) shiftTraffic(ctx context.Context, version string, steps []int) {
	c.Events.emit("traffic:shifting", map[string]interface{}{"version": version})
	for _, pct := range steps {
		c.Events.emit("traffic:percentage", map[string]interface{}{"percentage": pct})
		_ = sleepOrCancel(ctx, c.TrafficShiftDelay)
	}
}

// basePort is the first port allocated to a deployment's instances;
// callers running multiple instances get consecutive ports.
const basePort = 8080
