// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package deployment

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// DockerRuntime runs each ServiceInstance as a single container of
// ImageTemplate, parameterised by version via an environment variable.
// Grounded on the teacher's merge-queue DockerManager: a thin wrapper
// around a single *client.Client used for container lifecycle, not a
// general compose/orchestration layer.
type DockerRuntime struct {
	Client        *client.Client
	ImageTemplate string // fmt.Sprintf target, receives the version
	HealthCmd     []string
}

// NewDockerRuntime constructs a DockerRuntime from the ambient Docker
// environment (DOCKER_HOST, TLS env vars, etc).
func NewDockerRuntime(imageTemplate string, healthCmd []string) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("deployment: docker client: %w", err)
	}
	return &DockerRuntime{Client: cli, ImageTemplate: imageTemplate, HealthCmd: healthCmd}, nil
}

func (d *DockerRuntime) StartInstance(ctx context.Context, version string, port int) (types.ServiceInstance, error) {
	image := fmt.Sprintf(d.ImageTemplate, version)
	name := fmt.Sprintf("agentswarm-%s-%s", version, uuid.NewString()[:8])

	created, err := d.Client.ContainerCreate(ctx, &container.Config{
		Image: image,
		Env:   []string{fmt.Sprintf("SERVICE_VERSION=%s", version), fmt.Sprintf("SERVICE_PORT=%d", port)},
	}, &container.HostConfig{}, nil, nil, name)
	if err != nil {
		return types.ServiceInstance{}, fmt.Errorf("deployment: create container: %w", err)
	}

	if err := d.Client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return types.ServiceInstance{}, fmt.Errorf("deployment: start container: %w", err)
	}

	return types.ServiceInstance{
		ID:          uuid.NewString(),
		Version:     version,
		Status:      types.InstanceStarting,
		Port:        port,
		ContainerID: created.ID,
	}, nil
}

func (d *DockerRuntime) StopInstance(ctx context.Context, instance types.ServiceInstance) error {
	if instance.ContainerID == "" {
		return nil
	}
	if err := d.Client.ContainerStop(ctx, instance.ContainerID, container.StopOptions{}); err != nil {
		return fmt.Errorf("deployment: stop container %s: %w", instance.ContainerID, err)
	}
	return nil
}

func (d *DockerRuntime) Probe(ctx context.Context, instance types.ServiceInstance) (bool, error) {
	if instance.ContainerID == "" {
		return false, fmt.Errorf("deployment: instance %s has no backing container", instance.ID)
	}
	inspect, err := d.Client.ContainerInspect(ctx, instance.ContainerID)
	if err != nil {
		return false, fmt.Errorf("deployment: inspect container %s: %w", instance.ContainerID, err)
	}
	if inspect.State == nil {
		return false, nil
	}
	if inspect.State.Health != nil {
		return inspect.State.Health.Status == "healthy", nil
	}
	return inspect.State.Running, nil
}
