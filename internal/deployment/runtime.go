// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package deployment

import (
	"context"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Runtime starts, stops and health-checks the containers backing a
// ServiceInstance. DockerRuntime is the production implementation;
// tests supply a fake.
type Runtime interface {
	StartInstance(ctx context.Context, version string, port int) (types.ServiceInstance, error)
	StopInstance(ctx context.Context, instance types.ServiceInstance) error
	Probe(ctx context.Context, instance types.ServiceInstance) (healthy bool, err error)
}
