package bolt

import (
	"context"
	"encoding/json"

	"github.com/abradburne/talky"
)

// Bucket names.
var (
	jobsBucket      = []byte("Jobs")
	jobsByCreatedAt = []byte("JobsByCreatedAt")
)

// Ensure service implements interface.
var _ talky.JobService = &JobService{}

// JobService represents a durable store for jobs.
type JobService struct {
	db *DB

	// Returns a new job identifier. Overridable for tests.
	GenerateID func() string
}

// NewJobService returns a new instance of JobService.
func NewJobService(db *DB) *JobService {
	return &JobService{
		db:         db,
		GenerateID: talky.NewID,
	}
}

// CreateJob inserts a new pending job.
func (s *JobService) CreateJob(ctx context.Context, job *talky.Job) error {
	if job == nil {
		return talky.ErrJobRequired
	}

	tx, err := s.db.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := func() error {
		if err := s.createJob(ctx, tx, job); err != nil {
			return err
		} else if err := tx.Commit(); err != nil {
			return err
		}
		return nil
	}(); err != nil {
		job.ID = ""
		return err
	}
	return nil
}

// FindJobByID returns a job by ID. Returns nil if the job does not exist.
func (s *JobService) FindJobByID(ctx context.Context, id string) (*talky.Job, error) {
	tx, err := s.db.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return findJobByID(ctx, tx, id)
}

// UpdateJob saves an existing job. Single-record, last-writer-wins.
func (s *JobService) UpdateJob(ctx context.Context, job *talky.Job) error {
	if job == nil {
		return talky.ErrJobRequired
	}

	tx, err := s.db.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if existing, err := findJobByID(ctx, tx, job.ID); err != nil {
		return err
	} else if existing == nil {
		return talky.ErrJobNotFound
	}

	if err := saveJob(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteJob removes a job and its creation-time index entry.
func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	job, err := findJobByID(ctx, tx, id)
	if err != nil {
		return err
	} else if job == nil {
		return talky.ErrJobNotFound
	}

	if bkt := tx.Bucket(jobsBucket); bkt != nil {
		if err := bkt.Delete([]byte(id)); err != nil {
			return err
		}
	}
	if bkt := tx.Bucket(jobsByCreatedAt); bkt != nil {
		if err := bkt.Delete(makeTimeKey(job.CreatedAt, job.ID)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Jobs returns one page of jobs ordered by creation time, newest first,
// along with the total job count.
func (s *JobService) Jobs(ctx context.Context, limit, offset int) ([]*talky.Job, int, error) {
	tx, err := s.db.Begin(ctx, false)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	jobs := []*talky.Job{}

	bkt := tx.Bucket(jobsBucket)
	if bkt == nil {
		return jobs, 0, nil
	}
	total := bkt.Stats().KeyN

	idx := tx.Bucket(jobsByCreatedAt)
	if idx == nil {
		return jobs, total, nil
	}

	// Walk the time index backwards for newest-first ordering.
	cur := idx.Cursor()
	i := 0
	for k, v := cur.Last(); k != nil; k, v = cur.Prev() {
		if i < offset {
			i++
			continue
		} else if limit > 0 && len(jobs) >= limit {
			break
		}
		i++

		job, err := findJobByID(ctx, tx, string(v))
		if err != nil {
			return nil, 0, err
		} else if job == nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, total, nil
}

// DeleteAllJobs removes every job. Returns the audio paths that had been
// recorded on the deleted jobs.
func (s *JobService) DeleteAllJobs(ctx context.Context) ([]string, error) {
	tx, err := s.db.Begin(ctx, true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var paths []string

	bkt := tx.Bucket(jobsBucket)
	if bkt == nil {
		return paths, nil
	}

	// Collect artifact paths before dropping the buckets.
	cur := bkt.Cursor()
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		var job talky.Job
		if err := unmarshalJob(v, &job); err != nil {
			return nil, err
		}
		if job.AudioPath != "" {
			paths = append(paths, job.AudioPath)
		}
	}

	if err := tx.DeleteBucket(jobsBucket); err != nil {
		return nil, err
	}
	if tx.Bucket(jobsByCreatedAt) != nil {
		if err := tx.DeleteBucket(jobsByCreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return paths, nil
}

func findJobByID(ctx context.Context, tx *Tx, id string) (*talky.Job, error) {
	bkt := tx.Bucket(jobsBucket)
	if bkt == nil {
		return nil, nil
	}

	var job talky.Job
	if buf := bkt.Get([]byte(id)); buf == nil {
		return nil, nil
	} else if err := unmarshalJob(buf, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobService) createJob(ctx context.Context, tx *Tx, job *talky.Job) error {
	if job.Text == "" {
		return talky.ErrJobTextRequired
	}

	// Assign identifier & initial state.
	if job.ID == "" {
		job.ID = s.GenerateID()
	}
	job.Status = talky.JobStatusPending
	job.CreatedAt = tx.Now.UTC()

	if err := saveJob(ctx, tx, job); err != nil {
		return err
	}

	// Index by creation time for newest-first listing.
	bkt, err := tx.CreateBucketIfNotExists(jobsByCreatedAt)
	if err != nil {
		return err
	}
	return bkt.Put(makeTimeKey(job.CreatedAt, job.ID), []byte(job.ID))
}

func saveJob(ctx context.Context, tx *Tx, job *talky.Job) error {
	// Validate record.
	if job.ID == "" {
		return talky.ErrJobRequired
	} else if !talky.IsValidJobStatus(job.Status) {
		return talky.ErrInvalidJobStatus
	}

	// Marshal and update record.
	if buf, err := marshalJob(job); err != nil {
		return err
	} else if bkt, err := tx.CreateBucketIfNotExists(jobsBucket); err != nil {
		return err
	} else if err := bkt.Put([]byte(job.ID), buf); err != nil {
		return err
	}
	return nil
}

// jobRecord is the stored representation of a job. Kept separate from
// the domain type so the storage schema is stable against API changes.
type jobRecord struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	VoiceID     string `json:"voice_id,omitempty"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	AudioPath   string `json:"audio_path,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMs  int    `json:"duration_ms,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

func marshalJob(v *talky.Job) ([]byte, error) {
	return json.Marshal(&jobRecord{
		ID:          v.ID,
		Text:        v.Text,
		VoiceID:     v.VoiceID,
		Status:      v.Status,
		CreatedAt:   encodeTime(v.CreatedAt),
		CompletedAt: encodeTime(v.CompletedAt),
		AudioPath:   v.AudioPath,
		Error:       v.Error,
		DurationMs:  v.DurationMs,
		SizeBytes:   v.SizeBytes,
	})
}

func unmarshalJob(data []byte, v *talky.Job) error {
	var rec jobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*v = talky.Job{
		ID:          rec.ID,
		Text:        rec.Text,
		VoiceID:     rec.VoiceID,
		Status:      rec.Status,
		CreatedAt:   decodeTime(rec.CreatedAt),
		CompletedAt: decodeTime(rec.CompletedAt),
		AudioPath:   rec.AudioPath,
		Error:       rec.Error,
		DurationMs:  rec.DurationMs,
		SizeBytes:   rec.SizeBytes,
	}
	return nil
}
