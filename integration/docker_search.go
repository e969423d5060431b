//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

var searchService = getenv("E2E_SEARCH_SERVICE", "elasticsearch")

func stopSearchContainer(t *testing.T, ctx context.Context) {
	t.Helper()
	compose(t, ctx, "stop", searchService)
}

func startSearchContainer(t *testing.T, ctx context.Context) {
	t.Helper()
	compose(t, ctx, "start", searchService)
}

func compose(t *testing.T, ctx context.Context, args ...string) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", append([]string{"compose"}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose %v failed: %v\n%s", args, err, string(out))
	}
}
