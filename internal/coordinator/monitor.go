package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/rpc"
)

const (
	tickMonitorInterval   = 1 * time.Second
	workerMonitorInterval = 5 * time.Second

	// Workers are reported unavailable after this many consecutive failed
	// pings.
	workerMaxFailures = 3
)

// tickPace converts tick progress between two observations into ticks per
// second.
type tickPace struct {
	lastTick    uint64
	lastTime    time.Time
	initialized bool
}

func (p *tickPace) observe(tick uint64, now time.Time) (float64, bool) {
	if !p.initialized {
		p.lastTick = tick
		p.lastTime = now
		p.initialized = true
		return 0, false
	}
	elapsed := now.Sub(p.lastTime).Seconds()
	delta := tick - p.lastTick
	if tick < p.lastTick {
		delta = 0
	}
	p.lastTick = tick
	p.lastTime = now
	if elapsed <= 0 {
		return 0, false
	}
	return float64(delta) / elapsed, true
}

// RunTickMonitor logs the colony's tick pace once per second until ctx is
// canceled. Idles until the colony is initialized.
func (c *Context) RunTickMonitor(ctx context.Context) {
	var pace tickPace
	ticker := c.clk.Ticker(tickMonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		topo := c.Topology()
		if topo == nil {
			continue
		}
		tick, err := c.currentTick(topo)
		if err != nil {
			c.log.Warn("tick monitor: colony time unavailable", zap.Error(err))
			continue
		}
		if rate, ok := pace.observe(tick, c.clk.Now()); ok {
			c.log.Info("tick pace",
				zap.Uint64("tick", tick),
				zap.Float64("ticks_per_second", rate))
		}
	}
}

// workerHealth tracks one worker's consecutive ping failures.
type workerHealth struct {
	consecutiveFails int
	reported         bool
}

// RunWorkerMonitor pings every topology worker periodically and logs
// workers that stop answering. There is no automatic reassignment; a lost
// worker's shards stop being simulated until an operator intervenes.
func (c *Context) RunWorkerMonitor(ctx context.Context) {
	health := make(map[string]*workerHealth)
	ticker := c.clk.Ticker(workerMonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		topo := c.Topology()
		if topo == nil {
			continue
		}
		for _, worker := range topo.Workers {
			addr := worker.Addr()
			h := health[addr]
			if h == nil {
				h = &workerHealth{}
				health[addr] = h
			}

			if _, err := c.client.Call(addr, &rpc.PingRequest{}); err != nil {
				h.consecutiveFails++
				if h.consecutiveFails >= workerMaxFailures && !h.reported {
					h.reported = true
					c.log.Error("worker unavailable",
						zap.String("worker", addr),
						zap.Int("consecutive_failures", h.consecutiveFails))
				}
				continue
			}
			if h.reported {
				c.log.Info("worker recovered", zap.String("worker", addr))
			}
			h.consecutiveFails = 0
			h.reported = false
		}
	}
}
