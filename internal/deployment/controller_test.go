// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package deployment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// fakeRuntime is an in-memory Runtime for deterministic tests.
type fakeRuntime struct {
	mu      sync.Mutex
	started []types.ServiceInstance
	stopped []string
	healthy bool
	failErr error
}

func (f *fakeRuntime) StartInstance(ctx context.Context, version string, port int) (types.ServiceInstance, error) {
	if f.failErr != nil {
		return types.ServiceInstance{}, f.failErr
	}
	inst := types.ServiceInstance{ID: uuid.NewString(), Version: version, Port: port, Status: types.InstanceStarting, ContainerID: "c-" + uuid.NewString()}
	f.mu.Lock()
	f.started = append(f.started, inst)
	f.mu.Unlock()
	return inst, nil
}

func (f *fakeRuntime) StopInstance(ctx context.Context, instance types.ServiceInstance) error {
	f.mu.Lock()
	f.stopped = append(f.stopped, instance.ID)
	f.mu.Unlock()
	return nil
}

func (f *fakeRuntime) Probe(ctx context.Context, instance types.ServiceInstance) (bool, error) {
	return f.healthy, nil
}

func newTestController(healthy bool) (*Controller, *fakeRuntime) {
	runtime := &fakeRuntime{healthy: healthy}
	c := NewController(runtime)
	c.HealthCheckBackoff = time.Millisecond
	c.TrafficShiftDelay = time.Millisecond
	c.CanaryMonitor = time.Millisecond
	c.HealthCheckRetries = 2
	return c, runtime
}

func TestDeploy_BlueGreenZeroDropsHappyPath(t *testing.T) {
	c, runtime := newTestController(true)

	for i := 0; i < 100; i++ {
		c.TrackRequest(true)
	}

	var events []string
	c.Events.Subscribe(func(ev Event) { events = append(events, ev.Name) })

	result := c.Deploy(context.Background(), "v1.0.0", types.StrategyBlueGreen)

	require.True(t, result.Success)
	assert.Equal(t, types.DeployCompleted, result.FinalStatus)
	assert.Equal(t, 0, result.FailedRequests)
	assert.Len(t, runtime.started, 1)

	assert.Contains(t, events, "deployment:started")
	assert.Contains(t, events, "deployment:strategy")
	assert.Contains(t, events, "instance:started")
	assert.Contains(t, events, "traffic:switched")
	assert.Contains(t, events, "deployment:completed")
}

func TestDeploy_SequentialDeploymentsStartFromPriorVersion(t *testing.T) {
	c, runtime := newTestController(true)

	first := c.Deploy(context.Background(), "v1", types.StrategyBlueGreen)
	require.True(t, first.Success)
	assert.Len(t, c.currentInstances, 1)

	second := c.Deploy(context.Background(), "v2", types.StrategyBlueGreen)
	require.True(t, second.Success)

	assert.Len(t, runtime.stopped, 1) // the v1 instance stopped during the v2 cut-over
}

func TestDeploy_UnhealthyInstanceFailsAndRollsBack(t *testing.T) {
	c, runtime := newTestController(false)

	result := c.Deploy(context.Background(), "v1", types.StrategyBlueGreen)

	require.False(t, result.Success)
	assert.Equal(t, types.DeployFailed, result.FinalStatus)
	assert.NotEmpty(t, result.Error)
	assert.NotEmpty(t, runtime.stopped) // rollback stopped the unhealthy new instance
}

func TestGetStats_DefaultsTo100WhenNoDeployments(t *testing.T) {
	c, _ := newTestController(true)
	stats := c.GetStats()
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 100.0, stats.SuccessRate)
}

func TestGetStats_TracksFailuresAcrossDeployments(t *testing.T) {
	c, _ := newTestController(false)
	c.Deploy(context.Background(), "v1", types.StrategyBlueGreen)

	stats := c.GetStats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0.0, stats.SuccessRate)
}

func TestDeploy_RollingWithNoOldInstancesRunsSingleCycle(t *testing.T) {
	c, runtime := newTestController(true)
	result := c.Deploy(context.Background(), "v1", types.StrategyRolling)

	require.True(t, result.Success)
	assert.Len(t, runtime.started, 1)
}

func TestDeploy_CanaryContinuesToBlueGreenWhenHealthy(t *testing.T) {
	c, runtime := newTestController(true)
	result := c.Deploy(context.Background(), "v1", types.StrategyCanary)

	require.True(t, result.Success)
	assert.Len(t, runtime.started, 2) // canary instance + blue-green rollout instance
}

func TestTrackRequest_AccumulatesTotals(t *testing.T) {
	c, _ := newTestController(true)
	c.TrackRequest(true)
	c.TrackRequest(false)
	c.TrackRequest(true)

	assert.Equal(t, 3, c.snapshotTotal())
	assert.Equal(t, 1, c.snapshotFailed())
}
