package app

import (
	"github.com/velasier/paperbase/internal/pkg/cron"
)

func (a *App) registerJobs() {
	a.scheduler.Register(cron.Job{
		Name:        "fetch_papers",
		Description: "Fetch new papers for every user's tracked keywords",
		Interval:    a.cfg.Fetch.Interval.Duration,
		Fn:          a.ingestSvc.RunScheduledFetch,
	})
}
