package mock

import (
	"context"

	"github.com/abradburne/talky"
)

var _ talky.JobService = &JobService{}

// JobService is a mock of talky.JobService.
type JobService struct {
	CreateJobFn     func(ctx context.Context, job *talky.Job) error
	FindJobByIDFn   func(ctx context.Context, id string) (*talky.Job, error)
	UpdateJobFn     func(ctx context.Context, job *talky.Job) error
	DeleteJobFn     func(ctx context.Context, id string) error
	JobsFn          func(ctx context.Context, limit, offset int) ([]*talky.Job, int, error)
	DeleteAllJobsFn func(ctx context.Context) ([]string, error)
}

func (s *JobService) CreateJob(ctx context.Context, job *talky.Job) error {
	return s.CreateJobFn(ctx, job)
}

func (s *JobService) FindJobByID(ctx context.Context, id string) (*talky.Job, error) {
	return s.FindJobByIDFn(ctx, id)
}

func (s *JobService) UpdateJob(ctx context.Context, job *talky.Job) error {
	return s.UpdateJobFn(ctx, job)
}

func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	return s.DeleteJobFn(ctx, id)
}

func (s *JobService) Jobs(ctx context.Context, limit, offset int) ([]*talky.Job, int, error) {
	return s.JobsFn(ctx, limit, offset)
}

func (s *JobService) DeleteAllJobs(ctx context.Context) ([]string, error) {
	return s.DeleteAllJobsFn(ctx)
}

var _ talky.JobEnqueuer = &JobEnqueuer{}

// JobEnqueuer is a mock of talky.JobEnqueuer.
type JobEnqueuer struct {
	EnqueueFn func(jobID string)
}

func (e *JobEnqueuer) Enqueue(jobID string) {
	e.EnqueueFn(jobID)
}
