package platform

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// ECSAPI is the part of the ECS client the task describer uses.
type ECSAPI interface {
	DescribeTasks(ctx context.Context, in *ecs.DescribeTasksInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error)
}

// TaskDescriber implements port.TaskDescriber over ECS.
type TaskDescriber struct {
	api ECSAPI
}

// NewTaskDescriber creates a task describer.
func NewTaskDescriber(api ECSAPI) *TaskDescriber {
	return &TaskDescriber{api: api}
}

// NewTaskDescriberFromConfig builds the describer from an AWS config.
func NewTaskDescriberFromConfig(cfg aws.Config) *TaskDescriber {
	return NewTaskDescriber(ecs.NewFromConfig(cfg))
}

// TaskGroup returns the group of a task, e.g. "service:payments-api".
func (d *TaskDescriber) TaskGroup(ctx context.Context, cluster, taskArn string) (string, error) {
	out, err := d.api.DescribeTasks(ctx, &ecs.DescribeTasksInput{
		Cluster: aws.String(cluster),
		Tasks:   []string{taskArn},
	})
	if err != nil {
		return "", mapAPIError(err, port.ErrTaskNotFound, "ClusterNotFoundException")
	}
	if len(out.Tasks) == 0 {
		reason := "no task returned"
		if len(out.Failures) > 0 {
			reason = aws.ToString(out.Failures[0].Reason)
		}
		return "", fmt.Errorf("%w: %s in cluster %s: %s", port.ErrTaskNotFound, taskArn, cluster, reason)
	}
	group := aws.ToString(out.Tasks[0].Group)
	if group == "" {
		return "", fmt.Errorf("%w: task %s has no group", port.ErrTaskNotFound, taskArn)
	}
	return group, nil
}
