package detector

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/postprocess"
	"github.com/labelkit/go-labelkit/preprocess"
)

// Job identifies one queued inference request.
type Job struct {
	ID        uuid.UUID
	ImagePath string
}

// Result is the outcome of one job: the suppressed, normalized boxes
// ready for merging, or the error that stopped the pipeline.
type Result struct {
	Job   Job
	Boxes []labelkit.Box
	Err   error
}

// SchedulerParams configures the inference worker pool.
type SchedulerParams struct {
	// Detector runs the model, shared across workers
	Detector Detector
	// Workers is the pool size, minimum one
	Workers int
	// ClassCount of the loaded model
	ClassCount int
	// Format of the model output, FormatAuto to detect per tensor
	Format postprocess.Format
	// Thresholds applied during suppression
	Thresholds postprocess.Thresholds
	// Loader reads an image from disk, defaults to image.Decode
	Loader func(path string) (image.Image, error)
	// QueueSize bounds the pending job queue, minimum one
	QueueSize int
}

// Scheduler fans inference jobs out over a worker pool and streams
// results back on a channel.  Jobs can be cancelled while queued, a job
// already running finishes its forward pass.
type Scheduler struct {
	params  SchedulerParams
	decoder *postprocess.Decoder

	jobs    chan Job
	results chan Result

	mu        sync.Mutex
	cancelled map[uuid.UUID]struct{}

	wg      sync.WaitGroup
	closing sync.Once
}

// NewScheduler starts the worker pool.
func NewScheduler(p SchedulerParams) (*Scheduler, error) {

	if p.Detector == nil {
		return nil, fmt.Errorf("scheduler requires a detector")
	}

	if p.Workers < 1 {
		p.Workers = 1
	}

	if p.QueueSize < 1 {
		p.QueueSize = 16
	}

	if p.Loader == nil {
		p.Loader = loadImage
	}

	s := &Scheduler{
		params:    p,
		decoder:   postprocess.NewDecoder(postprocess.DefaultDecoderParams(p.Format, p.ClassCount)),
		jobs:      make(chan Job, p.QueueSize),
		results:   make(chan Result, p.QueueSize),
		cancelled: make(map[uuid.UUID]struct{}),
	}

	for i := 0; i < p.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	return s, nil
}

// Submit queues an image for inference and returns the job id.
func (s *Scheduler) Submit(imagePath string) (uuid.UUID, error) {

	job := Job{ID: uuid.New(), ImagePath: imagePath}

	select {
	case s.jobs <- job:
		return job.ID, nil
	default:
		return uuid.Nil, fmt.Errorf("job queue full")
	}
}

// Results streams completed jobs.  The channel closes after Close once
// all workers have drained.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Cancel marks a queued job so its result is skipped.  A job already
// past decode still emits its result.
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	s.cancelled[id] = struct{}{}
	s.mu.Unlock()
}

// Close stops accepting jobs, waits for in-flight work and closes the
// results channel.
func (s *Scheduler) Close() {
	s.closing.Do(func() {
		close(s.jobs)
		s.wg.Wait()
		close(s.results)
	})
}

func (s *Scheduler) worker() {

	defer s.wg.Done()

	for job := range s.jobs {

		if s.isCancelled(job.ID) {
			s.results <- Result{Job: job, Err: context.Canceled}
			continue
		}

		boxes, err := s.process(job)

		if err != nil {
			zap.L().Warn("inference failed",
				zap.String("image", job.ImagePath),
				zap.Error(err))
		}

		s.results <- Result{Job: job, Boxes: boxes, Err: err}
	}
}

// process runs the full pipeline for one image: load, letterbox and
// infer, decode back to source pixels, suppress, normalize.
func (s *Scheduler) process(job Job) ([]labelkit.Box, error) {

	img, err := s.params.Loader(job.ImagePath)

	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", job.ImagePath, err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	inW, inH := s.params.Detector.InputSize()
	tr := preprocess.NewTransform(srcW, srcH, inW, inH)

	tensor, err := s.params.Detector.Infer(context.Background(), img, tr)

	if err != nil {
		return nil, err
	}

	cands, err := s.decoder.Decode(tensor, tr)

	if err != nil {
		return nil, err
	}

	kept := postprocess.Suppress(cands, s.params.Thresholds)

	return postprocess.Boxes(kept, srcW, srcH), nil
}

func (s *Scheduler) isCancelled(id uuid.UUID) bool {
	s.mu.Lock()
	_, ok := s.cancelled[id]
	delete(s.cancelled, id)
	s.mu.Unlock()
	return ok
}

// loadImage is the default loader.  Decoders for the supported formats
// must be registered by the caller's imports.
func loadImage(path string) (image.Image, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	return img, err
}
