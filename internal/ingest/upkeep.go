package ingest

import (
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Netflix-Skunkworks/spectatord/internal/procstat"
	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

const (
	upkeepFrequency     = 30 * time.Second
	stuckPublisherLimit = 60 * time.Second
)

// UpkeepConfig carries everything Upkeep needs to run its janitorial tasks:
// where to look for the kernel's UDP socket stats, and how to ask the
// publisher when it last shipped a batch successfully.
type UpkeepConfig struct {
	UDPPort         int
	ProcNetUDPFile  string // default /proc/net/udp
	ProcRmemMaxFile string // default /proc/sys/net/core/rmem_max
	LastSuccess     func() int64
}

// Upkeep runs the daemon's periodic janitorial tasks: aborting the process
// if publishing has been stuck for too long, expiring the percentile
// composite caches, and publishing self-observation metrics about the
// kernel's UDP socket state and the string interning pool.
type Upkeep struct {
	cfg      UpkeepConfig
	registry *spectator.Registry
	parser   *Parser

	scheduler gocron.Scheduler

	timersSizeGauge    *spectator.Gauge
	dsSizeGauge        *spectator.Gauge
	timersExpiredCtr   *spectator.Counter
	dsExpiredCtr       *spectator.Counter
	poolHits           *spectator.MonotonicCounter
	poolMisses         *spectator.MonotonicCounter
	poolAllocSizeGauge *spectator.Gauge
	poolEntriesGauge   *spectator.Gauge
	udpDroppedCtr      *spectator.MonotonicCounter
	udpRxQueueGauge    *spectator.MaxGauge
}

// NewUpkeep builds an Upkeep bound to registry and parser. Config fields
// left zero get their upstream defaults.
func NewUpkeep(cfg UpkeepConfig, registry *spectator.Registry, parser *Parser) (*Upkeep, error) {
	if cfg.ProcNetUDPFile == "" {
		cfg.ProcNetUDPFile = "/proc/net/udp"
	}
	if cfg.ProcRmemMaxFile == "" {
		cfg.ProcRmemMaxFile = "/proc/sys/net/core/rmem_max"
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	u := &Upkeep{
		cfg:       cfg,
		registry:  registry,
		parser:    parser,
		scheduler: scheduler,

		timersSizeGauge:    registry.GetGauge(registry.CreateId("spectatord.percentileCacheSize", spectator.NewTags(map[string]string{"id": "timer"}))),
		dsSizeGauge:        registry.GetGauge(registry.CreateId("spectatord.percentileCacheSize", spectator.NewTags(map[string]string{"id": "dist-summary"}))),
		timersExpiredCtr:   registry.GetCounter(registry.CreateId("spectatord.percentileExpired", spectator.NewTags(map[string]string{"id": "timer"}))),
		dsExpiredCtr:       registry.GetCounter(registry.CreateId("spectatord.percentileExpired", spectator.NewTags(map[string]string{"id": "dist-summary"}))),
		poolHits:           registry.GetMonotonicCounter(registry.CreateId("spectatord.poolAccess", spectator.NewTags(map[string]string{"id": "hit"}))),
		poolMisses:         registry.GetMonotonicCounter(registry.CreateId("spectatord.poolAccess", spectator.NewTags(map[string]string{"id": "miss"}))),
		poolAllocSizeGauge: registry.GetGauge(registry.CreateId("spectatord.poolAllocSize", spectator.Tags{})),
		poolEntriesGauge:   registry.GetGauge(registry.CreateId("spectatord.poolEntries", spectator.Tags{})),
		udpDroppedCtr:      registry.GetMonotonicCounter(registry.CreateId("spectatord.udpPacketsDropped", spectator.Tags{})),
		udpRxQueueGauge:    registry.GetMaxGauge(registry.CreateId("spectatord.udpRxQueue", spectator.Tags{})),
	}
	return u, nil
}

// Start registers the janitorial tick and starts the scheduler.
func (u *Upkeep) Start() error {
	_, err := u.scheduler.NewJob(gocron.DurationJob(upkeepFrequency), gocron.NewTask(u.tick))
	if err != nil {
		return err
	}
	u.scheduler.Start()
	return nil
}

// Stop shuts down the scheduler.
func (u *Upkeep) Stop() error {
	return u.scheduler.Shutdown()
}

func (u *Upkeep) tick() {
	u.ensureNotStuck()

	_, tExpired, _, dExpired := u.parser.ExpirePercentileCaches()
	tSize, dSize := u.parser.PercentileCacheSizes()
	u.timersSizeGauge.Set(float64(tSize))
	u.dsSizeGauge.Set(float64(dSize))
	u.timersExpiredCtr.Add(float64(tExpired))
	u.dsExpiredCtr.Add(float64(dExpired))

	u.updateNetworkMetrics()

	stats := spectator.DefaultPoolStats()
	u.poolHits.Set(float64(stats.Hits))
	u.poolMisses.Set(float64(stats.Misses))
	u.poolEntriesGauge.Set(float64(stats.TableSize))
	log.Debugf("str pool: hits=%d misses=%d size=%d", stats.Hits, stats.Misses, stats.TableSize)
}

// ensureNotStuck aborts the process if the publisher has gone more than
// stuckPublisherLimit without shipping a batch successfully. This mirrors
// the upstream daemon's last-resort failure semantics: a spectatord that
// cannot publish is worse than no spectatord, since its in-memory registry
// will grow without bound.
func (u *Upkeep) ensureNotStuck() {
	if u.cfg.LastSuccess == nil {
		return
	}
	elapsed := time.Duration(time.Now().UnixNano() - u.cfg.LastSuccess())
	if elapsed > stuckPublisherLimit {
		log.Errorf("too long since we were able to send metrics successfully: %s > %s. ABORTING.",
			elapsed, stuckPublisherLimit)
		os.Exit(1)
	}
	log.Debugf("last batch of metrics was sent successfully %s ago", elapsed)
}

func (u *Upkeep) updateNetworkMetrics() {
	info, ok := procstat.ReadUDPInfo(u.cfg.ProcNetUDPFile, u.cfg.UDPPort)
	if !ok {
		return
	}
	u.udpDroppedCtr.Set(float64(info.NumDropped))
	u.udpRxQueueGauge.Update(float64(info.RxQueueBytes))
}
