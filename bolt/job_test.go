package bolt_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/abradburne/talky"
	"github.com/abradburne/talky/bolt"
)

// Ensure job service can create a job and fetch it back.
func TestJobService_CreateJob(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	job := talky.Job{Text: "Hello, world.", VoiceID: "C3-PO"}
	if err := s.CreateJob(context.Background(), &job); err != nil {
		t.Fatal(err)
	} else if job.ID == "" {
		t.Fatal("expected job id")
	} else if job.Status != talky.JobStatusPending {
		t.Fatalf("unexpected status: %s", job.Status)
	} else if !job.CreatedAt.Equal(Now) {
		t.Fatalf("unexpected created at: %v", job.CreatedAt)
	}

	// Fetch job & verify round-trip.
	if other, err := s.FindJobByID(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(&job, other) {
		t.Fatalf("unexpected job: %#v", other)
	}
}

// Ensure creating a job without text returns an error.
func TestJobService_CreateJob_ErrJobTextRequired(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	if err := s.CreateJob(context.Background(), &talky.Job{}); err != talky.ErrJobTextRequired {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Ensure fetching a non-existent job returns nil.
func TestJobService_FindJobByID_NotFound(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	if job, err := s.FindJobByID(context.Background(), "no-such-job"); err != nil {
		t.Fatal(err)
	} else if job != nil {
		t.Fatalf("expected nil job, got: %#v", job)
	}
}

// Ensure job updates are persisted.
func TestJobService_UpdateJob(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	job := talky.Job{Text: "Hello"}
	if err := s.CreateJob(context.Background(), &job); err != nil {
		t.Fatal(err)
	}

	// Transition to a terminal state.
	job.Status = talky.JobStatusCompleted
	job.CompletedAt = Now.Add(10 * time.Second)
	job.AudioPath = job.ID + ".wav"
	job.DurationMs = 1234
	job.SizeBytes = 98765
	if err := s.UpdateJob(context.Background(), &job); err != nil {
		t.Fatal(err)
	}

	if other, err := s.FindJobByID(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(&job, other) {
		t.Fatalf("unexpected job: %#v", other)
	}
}

// Ensure updating a missing job returns an error.
func TestJobService_UpdateJob_ErrJobNotFound(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	job := talky.Job{ID: "gone", Text: "X", Status: talky.JobStatusProcessing}
	if err := s.UpdateJob(context.Background(), &job); err != talky.ErrJobNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Ensure a job can be deleted.
func TestJobService_DeleteJob(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	job := talky.Job{Text: "Hello"}
	if err := s.CreateJob(context.Background(), &job); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteJob(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	}
	if other, err := s.FindJobByID(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	} else if other != nil {
		t.Fatalf("expected job to be deleted: %#v", other)
	}

	// Deleting again reports not found.
	if err := s.DeleteJob(context.Background(), job.ID); err != talky.ErrJobNotFound {
		t.Fatalf("unexpected error: %v", err)
	}

	// Listing no longer includes the deleted job.
	if jobs, total, err := s.Jobs(context.Background(), 10, 0); err != nil {
		t.Fatal(err)
	} else if total != 0 || len(jobs) != 0 {
		t.Fatalf("unexpected listing: total=%d len=%d", total, len(jobs))
	}
}

// Ensure jobs are listed newest-first with pagination.
func TestJobService_Jobs(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()

	// Advance the clock on each transaction so creation times differ.
	current := Now
	db.Now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	s := NewJobService(db)

	var ids []string
	for _, text := range []string{"Job 0", "Job 1", "Job 2"} {
		job := talky.Job{Text: text}
		if err := s.CreateJob(context.Background(), &job); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, job.ID)
	}

	// Full listing is newest first.
	jobs, total, err := s.Jobs(context.Background(), 50, 0)
	if err != nil {
		t.Fatal(err)
	} else if total != 3 {
		t.Fatalf("unexpected total: %d", total)
	} else if len(jobs) != 3 {
		t.Fatalf("unexpected job count: %d", len(jobs))
	} else if jobs[0].Text != "Job 2" || jobs[1].Text != "Job 1" || jobs[2].Text != "Job 0" {
		t.Fatalf("unexpected order: %s, %s, %s", jobs[0].Text, jobs[1].Text, jobs[2].Text)
	}

	// Paginate.
	if jobs, total, err := s.Jobs(context.Background(), 1, 1); err != nil {
		t.Fatal(err)
	} else if total != 3 {
		t.Fatalf("unexpected total: %d", total)
	} else if len(jobs) != 1 {
		t.Fatalf("unexpected job count: %d", len(jobs))
	} else if jobs[0].Text != "Job 1" {
		t.Fatalf("unexpected job: %s", jobs[0].Text)
	}

	// Offset past the end returns an empty page.
	if jobs, _, err := s.Jobs(context.Background(), 10, 5); err != nil {
		t.Fatal(err)
	} else if len(jobs) != 0 {
		t.Fatalf("unexpected job count: %d", len(jobs))
	}
}

// Ensure delete-all removes every job and reports recorded audio paths.
func TestJobService_DeleteAllJobs(t *testing.T) {
	db := MustOpenDB()
	defer db.MustClose()
	s := NewJobService(db)

	// One completed job with audio, one still pending.
	completed := talky.Job{Text: "done"}
	if err := s.CreateJob(context.Background(), &completed); err != nil {
		t.Fatal(err)
	}
	completed.Status = talky.JobStatusCompleted
	completed.CompletedAt = Now
	completed.AudioPath = completed.ID + ".wav"
	if err := s.UpdateJob(context.Background(), &completed); err != nil {
		t.Fatal(err)
	}

	pending := talky.Job{Text: "waiting"}
	if err := s.CreateJob(context.Background(), &pending); err != nil {
		t.Fatal(err)
	}

	paths, err := s.DeleteAllJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(paths, []string{completed.AudioPath}) {
		t.Fatalf("unexpected paths: %#v", paths)
	}

	if jobs, total, err := s.Jobs(context.Background(), 10, 0); err != nil {
		t.Fatal(err)
	} else if total != 0 || len(jobs) != 0 {
		t.Fatalf("unexpected listing: total=%d len=%d", total, len(jobs))
	}

	// Delete-all on an empty store is a no-op.
	if paths, err := s.DeleteAllJobs(context.Background()); err != nil {
		t.Fatal(err)
	} else if len(paths) != 0 {
		t.Fatalf("unexpected paths: %#v", paths)
	}
}

// NewJobService returns a job service with deterministic IDs.
func NewJobService(db *DB) *bolt.JobService {
	s := bolt.NewJobService(db.DB)
	s.GenerateID = SequentialIDGenerator()
	return s
}
