package bundle

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerRunner runs build containers against a Docker daemon.
type DockerRunner struct {
	cli *client.Client
	// Pull forces an image pull before each run.
	Pull bool
}

// NewDockerRunner connects to the daemon named by DOCKER_HOST, or host when
// it is not empty.
func NewDockerRunner(host string) (*DockerRunner, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerRunner{cli: cli}, nil
}

// Close releases the daemon connection.
func (d *DockerRunner) Close() error {
	return d.cli.Close()
}

// Run creates the container, streams its logs and waits for it to exit.
// The container is always removed.
func (d *DockerRunner) Run(ctx context.Context, req RunRequest) error {
	if d.Pull {
		if err := d.pull(ctx, req.Image); err != nil {
			return err
		}
	}

	mounts := make([]mount.Mount, 0, len(req.Mounts))
	for _, m := range req.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: m.Source,
			Target: m.Target,
		})
	}

	config := &container.Config{
		Image:      req.Image,
		Cmd:        req.Command,
		User:       req.User,
		WorkingDir: req.WorkingDir,
	}
	hostConfig := &container.HostConfig{Mounts: mounts}

	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, req.Name)
	if err != nil && client.IsErrNotFound(err) && !d.Pull {
		if err := d.pull(ctx, req.Image); err != nil {
			return err
		}
		resp, err = d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, req.Name)
	}
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	id := resp.ID

	defer func() {
		// ctx may already be cancelled.
		d.cli.ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true})
	}()

	if err := d.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}

	logs, err := d.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return fmt.Errorf("attach logs: %w", err)
	}

	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		stdcopy.StdCopy(stdout, stderr, logs)
		logs.Close()
	}()

	waitCh, errCh := d.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case result := <-waitCh:
		<-logDone
		if result.StatusCode != 0 {
			return fmt.Errorf("container exited with code %d", result.StatusCode)
		}
		return nil
	case err := <-errCh:
		logs.Close()
		<-logDone
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("container wait: %w", err)
	case <-ctx.Done():
		logs.Close()
		<-logDone
		return ctx.Err()
	}
}

func (d *DockerRunner) pull(ctx context.Context, ref string) error {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("docker pull %s: %w", ref, err)
	}
	defer rc.Close()
	// The pull is not finished until the body is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("docker pull %s: read response: %w", ref, err)
	}
	return nil
}
