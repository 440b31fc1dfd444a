package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"events_backend/internals/helpers/upload"
)

// ReferenceSource lists every stored filename still referenced by a record.
type ReferenceSource interface {
	ReferencedFilenames(ctx context.Context) (map[string]struct{}, error)
}

type ReaperConfig struct {
	Retention    time.Duration
	CronSchedule string
	DryRun       bool
	Timeout      time.Duration
}

type ReapResult struct {
	Scanned    int
	Candidates []string
	Deleted    int
	Failed     int
}

// Reaper removes uploads that no record references once they are older than
// the retention window. Files written by a request whose row write failed end
// up here.
type Reaper struct {
	Files   upload.Lister
	Remover Remover
	Refs    ReferenceSource
	Config  ReaperConfig
	Now     func() time.Time
}

func (r *Reaper) RunOnce(ctx context.Context) (ReapResult, error) {
	var res ReapResult
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	threshold := now().Add(-r.Config.Retention)

	objs, err := r.Files.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list uploads: %w", err)
	}
	res.Scanned = len(objs)

	refs, err := r.Refs.ReferencedFilenames(ctx)
	if err != nil {
		return res, fmt.Errorf("load references: %w", err)
	}

	for _, o := range objs {
		// bukan file upload (README, .gitkeep, ...)
		if !upload.IsStoredName(o.Name) {
			continue
		}
		if _, used := refs[o.Name]; used {
			continue
		}
		if !o.ModTime.Before(threshold) {
			continue
		}
		res.Candidates = append(res.Candidates, o.Name)
	}

	if r.Config.DryRun {
		log.Printf("[REAPER] DRY-RUN would delete %d/%d files", len(res.Candidates), res.Scanned)
		return res, nil
	}
	for _, name := range res.Candidates {
		if err := r.Remover.Remove(ctx, name); err != nil {
			res.Failed++
			log.Printf("[REAPER] delete %s gagal: %v", name, err)
			continue
		}
		res.Deleted++
	}
	if res.Deleted > 0 || res.Failed > 0 {
		log.Printf("[REAPER] deleted %d orphan files (failed=%d, scanned=%d)", res.Deleted, res.Failed, res.Scanned)
	}
	return res, nil
}

// StartReaperCron runs the reaper on its cron schedule until the returned
// cron is stopped.
func StartReaperCron(r *Reaper) (*cron.Cron, error) {
	timeout := r.Config.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(r.Config.CronSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			log.Printf("[REAPER] error: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add cron %q: %w", r.Config.CronSchedule, err)
	}
	log.Printf("[REAPER] started schedule=%q retention=%s dryRun=%v",
		r.Config.CronSchedule, r.Config.Retention, r.Config.DryRun)
	c.Start()
	return c, nil
}
