package intensity

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ja7ad/co2footprint/pkg/logx"
)

// DefaultPollInterval matches the hourly resolution of the live API.
const DefaultPollInterval = time.Hour

// Poller periodically fetches the live carbon intensity for one zone and
// appends readings to a Series. Failed polls are logged and skipped; the
// resolver falls through to the static table for timestamps they left
// uncovered.
type Poller struct {
	client *Client
	series *Series
	warn   *logx.Once

	cron *cron.Cron
	stop sync.Once
}

// StartPoller fetches once immediately, then on a fixed interval until Stop.
func StartPoller(client *Client, series *Series, every time.Duration, log *logx.Once) *Poller {
	if every <= 0 {
		every = DefaultPollInterval
	}
	if log == nil {
		log = logx.New(nil)
	}
	p := &Poller{
		client: client,
		series: series,
		warn:   log,
		cron:   cron.New(),
	}
	p.cron.Schedule(cron.Every(every), cron.FuncJob(p.poll))
	p.cron.Start()
	go p.poll()
	return p
}

// Stop cancels future polls. An in-flight poll finishes on its own bounded
// timeout. Safe to call more than once.
func (p *Poller) Stop() {
	p.stop.Do(func() {
		p.cron.Stop()
	})
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	pt, err := p.client.Latest(ctx)
	if err != nil {
		p.warn.Warn("ci-poll", "live carbon intensity poll failed, falling back to static table", "err", err)
		return
	}
	p.series.Append(pt)
}
