package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// Job is the unit of work flowing through a Pipeline: one business and what
// the steps produced for it.
type Job struct {
	// RunID identifies the batch run the job belongs to.
	RunID string

	// Seq is the work-queue position, zero for list batches.
	Seq int64

	// Business is the restaurant being crawled.
	Business model.Business

	// Result is the crawl result, set by CrawlStep. It may be partial.
	Result *model.CrawlResult

	// Err is the error of the first failing step.
	Err error

	// Skipped is set by a step to end the pipeline early without error.
	Skipped bool

	// SkipReason explains Skipped.
	SkipReason string

	// Performed lists the steps that ran.
	Performed []string

	// Elapsed is the time the pipeline took.
	Elapsed time.Duration
}

// Skip marks the job as skipped.
func (j *Job) Skip(reason string) {
	j.Skipped = true
	j.SkipReason = reason
}

// Step is one stage of processing a business.
type Step interface {
	// Do executes the step. Non-critical problems should be recorded in the
	// job and return nil.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence until one fails, one skips the job or
// the context ends. Step errors are also recorded in job.Err, which is the
// only place they appear when continueOnError is set.
// ctx is checked between steps; a running step watches it on its own.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	start := time.Now()
	defer func() { job.Elapsed = time.Since(start) }()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"business_id", job.Business.ID,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"business_id", job.Business.ID,
		)

		err := step.Do(ctx, job)
		job.Performed = append(job.Performed, step.Name())

		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"business_id", job.Business.ID,
				"error", err,
			)
			if job.Err == nil {
				job.Err = err
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		if job.Skipped {
			p.logger.Info("job skipped",
				"step", step.Name(),
				"business_id", job.Business.ID,
				"reason", job.SkipReason,
			)
			return nil
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
