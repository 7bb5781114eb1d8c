//go:build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartContainer bounces one compose service; snapshots and orders must
// survive it when the service is backed by redis or postgres.
func restartContainer(t *testing.T, ctx context.Context, service string) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", service)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", service, err, string(out))
	}
}
