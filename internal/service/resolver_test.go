package service_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/launchpad/internal/model"
	"github.com/pharmadesk/launchpad/internal/service"
)

func waitDone(t *testing.T, h *service.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit in time")
	}
}

func TestResolver(t *testing.T) {
	t.Parallel()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	ctx := t.Context()

	t.Run("first spawnable candidate wins", func(t *testing.T) {
		candidates := []service.Candidate{
			{Path: "launchpad-no-such-program-1"},
			{Path: "launchpad-no-such-program-2"},
			{Path: sh, Args: []string{"-c", "sleep 30"}},
		}
		h, err := service.Resolver{}.Resolve(ctx, model.RoleBackend, candidates)
		require.NoError(t, err)
		require.NotNil(t, h)
		t.Cleanup(func() {
			h.Terminate()
			waitDone(t, h)
		})

		require.Equal(t, model.RoleBackend, h.Role())
		require.NotEmpty(t, h.ID())
		require.NotZero(t, h.PID())
		require.Equal(t,
			[]string{"launchpad-no-such-program-1", "launchpad-no-such-program-2"},
			h.Attempted())
	})

	t.Run("all candidates fail", func(t *testing.T) {
		candidates := []service.Candidate{
			{Path: "launchpad-no-such-program-1"},
			{Path: "launchpad-no-such-program-2"},
			{Path: "launchpad-no-such-program-3"},
		}
		_, err := service.Resolver{}.Resolve(ctx, model.RoleFrontend, candidates)
		require.Error(t, err)

		var rerr *model.ResolutionError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, model.RoleFrontend, rerr.Role)
		require.Equal(t, []string{
			"launchpad-no-such-program-1",
			"launchpad-no-such-program-2",
			"launchpad-no-such-program-3",
		}, rerr.Attempted)

		var execErr *exec.Error
		require.ErrorAs(t, err, &execErr)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := service.Resolver{}.Resolve(ctx, model.RoleBackend, nil)
		var rerr *model.ResolutionError
		require.ErrorAs(t, err, &rerr)
		require.Empty(t, rerr.Attempted)
	})

	t.Run("non-zero exit is not a resolution failure", func(t *testing.T) {
		candidates := []service.Candidate{
			{Path: sh, Args: []string{"-c", "exit 3"}},
		}
		h, err := service.Resolver{}.Resolve(ctx, model.RoleBackend, candidates)
		require.NoError(t, err)
		require.Empty(t, h.Attempted())
		waitDone(t, h)
	})

	t.Run("terminate is idempotent", func(t *testing.T) {
		h, err := service.Resolver{}.Resolve(ctx, model.RoleBackend, []service.Candidate{
			{Path: sh, Args: []string{"-c", "sleep 30"}},
		})
		require.NoError(t, err)
		h.Terminate()
		h.Terminate()
		waitDone(t, h)
		h.Terminate() // already dead, still fine
	})

	t.Run("output redirected to role log file", func(t *testing.T) {
		dir := t.TempDir()
		r := service.Resolver{LogDir: dir}
		h, err := r.Resolve(ctx, model.RoleBackend, []service.Candidate{
			{Path: sh, Args: []string{"-c", "echo hello; echo oops 1>&2"}},
		})
		require.NoError(t, err)
		waitDone(t, h)

		b, err := os.ReadFile(filepath.Join(dir, "backend.log"))
		require.NoError(t, err)
		require.Contains(t, string(b), "hello")
		require.Contains(t, string(b), "oops")
	})

	t.Run("env overrides reach the child", func(t *testing.T) {
		dir := t.TempDir()
		r := service.Resolver{LogDir: dir}
		h, err := r.Resolve(ctx, model.RoleFrontend, []service.Candidate{
			{
				Path: sh,
				Args: []string{"-c", `printf '%s' "browser=$BROWSER"`},
				Env:  map[string]string{"BROWSER": "none"},
			},
		})
		require.NoError(t, err)
		waitDone(t, h)

		b, err := os.ReadFile(filepath.Join(dir, "frontend.log"))
		require.NoError(t, err)
		require.True(t, strings.Contains(string(b), "browser=none"), "got %q", string(b))
	})
}
