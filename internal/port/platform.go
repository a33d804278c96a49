package port

//go:generate go tool mockgen -source=platform.go -destination=mocks/platform_mock.go -package=mocks

import "context"

// ArtifactFetcher retrieves session artifacts from bulk storage.
type ArtifactFetcher interface {
	// Fetch downloads bucket/key into dir and returns the local path.
	// Missing objects fail with ErrObjectNotFound, connectivity problems with ErrTransient.
	Fetch(ctx context.Context, bucket, key, dir string) (string, error)
}

// TaskDescriber resolves a running task to the logical group it belongs to.
type TaskDescriber interface {
	// TaskGroup returns the task group (e.g. "service:web") of taskArn in cluster.
	TaskGroup(ctx context.Context, cluster, taskArn string) (string, error)
}
