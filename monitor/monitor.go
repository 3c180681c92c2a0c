// Package monitor periodically samples system CPU and memory usage and
// pushes the snapshot to the API alongside the log stream.
package monitor

import (
	"context"
	"log"
	"math"
	"time"

	"skylog/models"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

const DefaultInterval = 15 * time.Second

// Poster pushes one snapshot. Satisfied by the delivery client.
type Poster interface {
	SendMetrics(ctx context.Context, snap models.MetricsSnapshot) error
}

// Monitor runs a periodic sampling loop. Push failures are logged and
// otherwise swallowed; monitoring must never take the agent down.
type Monitor struct {
	poster   Poster
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(poster Poster, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		poster:   poster,
		interval: interval,
	}
}

// Start begins sampling, pushing one snapshot immediately and then on every
// tick.
func (m *Monitor) Start() {
	if m.stopCh != nil {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	log.Printf("Monitor: started, interval=%v", m.interval)

	go func() {
		defer close(m.doneCh)

		m.collectAndSend()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.collectAndSend()
			}
		}
	}()
}

// Stop halts the sampling loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.doneCh
	m.stopCh = nil
	log.Println("Monitor: stopped")
}

func (m *Monitor) collectAndSend() {
	snap, err := Collect()
	if err != nil {
		log.Printf("Monitor: collect failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	if err := m.poster.SendMetrics(ctx, snap); err != nil {
		log.Printf("Monitor: push failed: %v", err)
	}
}

// Collect samples current CPU and memory usage. CPU is approximated from
// the 1-minute load average normalized by core count, capped at 100.
func Collect() (models.MetricsSnapshot, error) {
	avg, err := load.Avg()
	if err != nil {
		return models.MetricsSnapshot{}, err
	}
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = 1
	}
	cpuPct := math.Min(math.Round(avg.Load1/float64(cores)*100), 100)

	vm, err := mem.VirtualMemory()
	if err != nil {
		return models.MetricsSnapshot{}, err
	}

	return models.MetricsSnapshot{
		CPU:          cpuPct,
		Memory:       math.Round(vm.UsedPercent),
		MemoryUsedGB: math.Round(float64(vm.Used)/(1<<30)*100) / 100,
	}, nil
}
