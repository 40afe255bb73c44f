// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: publishing
// scheduled posts, purging stale password resets and pruning the
// activity log.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// Job names.
const (
	JobPublishPosts   = "publish_scheduled_posts"
	JobPurgeResets    = "purge_password_resets"
	JobPruneActivity  = "prune_activity"
	defaultJobTimeout = 2 * time.Minute
)

// Default schedules in standard five-field cron syntax.
const (
	SchedulePublishPosts  = "* * * * *"
	SchedulePurgeResets   = "*/15 * * * *"
	SchedulePruneActivity = "30 3 * * *"
)

// job is a registered cron job.
type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
	run      func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name     string
	Schedule string
	NextRun  time.Time
}

// Scheduler owns the cron instance and the maintenance jobs.
type Scheduler struct {
	queries   *store.Queries
	activity  *service.ActivityService
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a scheduler. retentionDays <= 0 disables activity pruning.
func New(db *sql.DB, logger *slog.Logger, retentionDays int) *Scheduler {
	s := &Scheduler{
		queries:   store.New(db),
		activity:  service.NewActivityService(db),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger,
		jobs:      make(map[string]*job),
	}
	return s
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if err := s.register(JobPublishPosts, SchedulePublishPosts, s.publishScheduledPosts); err != nil {
		return err
	}
	if err := s.register(JobPurgeResets, SchedulePurgeResets, s.purgePasswordResets); err != nil {
		return err
	}
	if s.retention > 0 {
		if err := s.register(JobPruneActivity, SchedulePruneActivity, s.pruneActivity); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Add registers an extra job. Call before Start.
func (s *Scheduler) Add(name, schedule string, run func(ctx context.Context) error) error {
	return s.register(name, schedule, run)
}

func (s *Scheduler) register(name, schedule string, run func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	j := &job{name: name, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

func (s *Scheduler) execute(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	if err := j.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
	}
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return j.run(ctx)
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			NextRun:  s.cron.Entry(j.entryID).Next,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Scheduler) publishScheduledPosts(ctx context.Context) error {
	n, err := s.queries.PublishScheduledPosts(ctx, util.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	s.logger.Info("published scheduled posts", "count", n)
	_ = s.activity.LogInfo(ctx, model.ActivityCategoryContent,
		fmt.Sprintf("Scheduler published %d post(s)", n), 0, service.RequestInfo{},
		map[string]any{"count": n})
	return nil
}

func (s *Scheduler) purgePasswordResets(ctx context.Context) error {
	n, err := s.queries.DeleteStalePasswordResets(ctx, util.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged password resets", "count", n)
	}
	return nil
}

func (s *Scheduler) pruneActivity(ctx context.Context) error {
	n, err := s.activity.Prune(ctx, s.retention)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned activity log", "count", n, "retention", s.retention.String())
	}
	return nil
}
