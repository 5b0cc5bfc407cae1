package talky

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sync"
	"time"
)

// Job errors.
const (
	ErrJobRequired         = Error("job required")
	ErrJobNotFound         = Error("job not found")
	ErrJobTextRequired     = Error("job text required")
	ErrInvalidJobStatus    = Error("invalid job status")
	ErrJobProcessorRunning = Error("job processor already running")
)

// Job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// IsValidJobStatus returns true if v is a valid status.
func IsValidJobStatus(v string) bool {
	switch v {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Job represents a single text-to-speech synthesis request.
//
// The job processor is the sole mutator of Status, CompletedAt, AudioPath,
// Error, DurationMs & SizeBytes after creation. A terminal job carries
// exactly one of AudioPath or Error.
type Job struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	VoiceID     string    `json:"voice_id,omitempty"` // empty means default voice
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	AudioPath   string    `json:"audio_path,omitempty"`
	Error       string    `json:"error_message,omitempty"`
	DurationMs  int       `json:"duration_ms,omitempty"`
	SizeBytes   int64     `json:"file_size_bytes,omitempty"`
}

// Terminal returns true once the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobService represents a durable store for jobs.
type JobService interface {
	CreateJob(ctx context.Context, job *Job) error
	FindJobByID(ctx context.Context, id string) (*Job, error)
	UpdateJob(ctx context.Context, job *Job) error
	DeleteJob(ctx context.Context, id string) error

	// Jobs returns one page of jobs ordered by creation time, newest
	// first, along with the total number of jobs in the store.
	Jobs(ctx context.Context, limit, offset int) ([]*Job, int, error)

	// DeleteAllJobs removes every job and returns the audio paths that
	// had been recorded so the caller can remove the artifacts.
	DeleteAllJobs(ctx context.Context) ([]string, error)
}

// JobEnqueuer queues a job for background processing.
type JobEnqueuer interface {
	Enqueue(jobID string)
}

// DefaultShutdownTimeout is how long Close waits for an in-flight job.
const DefaultShutdownTimeout = 5 * time.Second

// JobProcessor drains queued job IDs one at a time and drives each job
// through its lifecycle. Exactly one worker goroutine consumes the queue
// so no two jobs are ever processing simultaneously, which is what makes
// the non-reentrant synthesis engine safe to call.
type JobProcessor struct {
	mu      sync.Mutex
	queue   []string
	wake    chan struct{}
	closing chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	JobService      JobService
	TTSService      TTSService
	ArtifactService ArtifactService

	// Maximum time Close waits for the current job before cancelling.
	ShutdownTimeout time.Duration

	Now       func() time.Time
	LogOutput io.Writer
}

// NewJobProcessor returns a new instance of JobProcessor.
func NewJobProcessor() *JobProcessor {
	return &JobProcessor{
		ShutdownTimeout: DefaultShutdownTimeout,
		Now:             time.Now,
		LogOutput:       ioutil.Discard,
	}
}

// Open starts the single worker goroutine. Reopening after Close resets
// the queue and all internal state.
func (p *JobProcessor) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrJobProcessorRunning
	}

	// Reset state from any previous run.
	p.queue = nil
	p.wake = make(chan struct{}, 1)
	p.closing = make(chan struct{})
	p.running = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.run(ctx) }()

	return nil
}

// Close stops the worker. The current job is given ShutdownTimeout to
// finish; after that the worker context is cancelled to abort the engine
// call. Closing an already-closed processor is a no-op.
func (p *JobProcessor) Close() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.closing)
	p.mu.Unlock()

	// Wait for the worker, up to the grace period.
	done := make(chan struct{})
	go func() { p.wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(p.ShutdownTimeout):
		fmt.Fprintf(p.LogOutput, "processor: shutdown grace period elapsed, cancelling worker\n")
		p.cancel()
		<-done
	}
	p.cancel()

	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()

	return nil
}

// Enqueue appends a job ID to the processing queue. It never blocks.
// Enqueueing on a closed processor is a logged no-op; the job record
// simply remains pending.
func (p *JobProcessor) Enqueue(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		fmt.Fprintf(p.LogOutput, "processor: not running, dropping enqueue: id=%s\n", jobID)
		return
	}
	p.queue = append(p.queue, jobID)

	// Coalesced wake-up signal.
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// dequeue pops the oldest queued job ID, if any.
func (p *JobProcessor) dequeue() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return "", false
	}
	id := p.queue[0]
	p.queue = p.queue[1:]
	return id, true
}

// run is the worker loop. It waits for a wake-up, then drains the queue
// in FIFO order, checking for shutdown between jobs.
func (p *JobProcessor) run(ctx context.Context) {
	for {
		select {
		case <-p.closing:
			return
		case <-p.wake:
		}

		for {
			id, ok := p.dequeue()
			if !ok {
				break
			}
			p.processJob(ctx, id)

			select {
			case <-p.closing:
				return
			default:
			}
		}
	}
}

// processJob drives a single job through its lifecycle. Errors of every
// kind terminate in the job record; nothing propagates out of the worker.
func (p *JobProcessor) processJob(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(p.LogOutput, "processor: panic processing job: id=%s err=%v\n", id, r)
		}
	}()

	// Load record. A missing record means it was deleted after being
	// queued; drop the job without error.
	job, err := p.JobService.FindJobByID(ctx, id)
	if err != nil {
		fmt.Fprintf(p.LogOutput, "processor: find job error: id=%s err=%s\n", id, err)
		return
	} else if job == nil {
		fmt.Fprintf(p.LogOutput, "processor: job not found, dropping: id=%s\n", id)
		return
	}

	// Only pending jobs may be started. Anything else was already
	// handled elsewhere; drop without mutating.
	if job.Status != JobStatusPending {
		fmt.Fprintf(p.LogOutput, "processor: job not pending, dropping: id=%s status=%s\n", id, job.Status)
		return
	}

	// Mark processing.
	job.Status = JobStatusProcessing
	if err := p.JobService.UpdateJob(ctx, job); err != nil {
		fmt.Fprintf(p.LogOutput, "processor: mark processing error: id=%s err=%s\n", id, err)
		return
	}

	fmt.Fprintf(p.LogOutput, "processor: job started: id=%s voice=%s len=%d\n", id, job.VoiceID, len(job.Text))

	start := p.Now()
	artifact, err := p.synthesize(ctx, job)
	elapsed := p.Now().Sub(start)

	job.CompletedAt = p.Now()
	job.DurationMs = int(elapsed / time.Millisecond)

	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		fmt.Fprintf(p.LogOutput, "processor: job failed: id=%s err=%q\n", id, err)
	} else {
		job.Status = JobStatusCompleted
		job.AudioPath = artifact.Name
		job.SizeBytes = artifact.Size
		fmt.Fprintf(p.LogOutput, "processor: job completed: id=%s size=%d duration=%dms\n", id, artifact.Size, job.DurationMs)
	}

	if err := p.JobService.UpdateJob(ctx, job); err != nil {
		fmt.Fprintf(p.LogOutput, "processor: update job error: id=%s err=%s\n", id, err)
	}
}

// synthesize runs the engine for a job and stores the audio artifact.
func (p *JobProcessor) synthesize(ctx context.Context, job *Job) (*Artifact, error) {
	rc, err := p.TTSService.SynthesizeSpeech(ctx, job.Text, job.VoiceID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	artifact := &Artifact{Name: ArtifactName(job.ID)}
	if err := p.ArtifactService.CreateArtifact(ctx, artifact, rc); err != nil {
		return nil, err
	}
	return artifact, nil
}
