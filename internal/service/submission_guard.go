package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSubmissionInFlight is returned when the session already has a submission running
var ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")

// releaseScript deletes the lock only when it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisInFlightKeyPrefix = "submission:inflight:"

	guardCleanupInterval = time.Minute
)

// SubmissionGuard allows at most one reservation submission per session.
//
// The local map rejects concurrent submits inside this process. When a Redis
// client is configured, a SET NX lock extends the guarantee to every instance
// sharing the same Redis.
type SubmissionGuard struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration

	inflight sync.Map // map[uuid.UUID]*inflightEntry

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type inflightEntry struct {
	token      string
	acquiredAt atomic.Int64
}

// NewSubmissionGuard starts the stale-entry cleanup loop; call Stop on shutdown.
// redisClient may be nil. ttl bounds how long a lock survives a crashed holder.
func NewSubmissionGuard(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *SubmissionGuard {
	g := &SubmissionGuard{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
		stopChan:    make(chan struct{}),
	}

	g.wg.Add(1)
	go g.cleanupLoop()

	return g
}

// Stop is safe to call multiple times
func (g *SubmissionGuard) Stop() {
	if g.stopped.CompareAndSwap(false, true) {
		close(g.stopChan)
		g.wg.Wait()
	}
}

// Acquire takes the session lock. The returned release func must be called
// once the submission is over.
func (g *SubmissionGuard) Acquire(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	entry := &inflightEntry{token: uuid.NewString()}
	entry.acquiredAt.Store(time.Now().Unix())

	if _, loaded := g.inflight.LoadOrStore(sessionID, entry); loaded {
		return nil, ErrSubmissionInFlight
	}

	if g.redisClient != nil {
		key := RedisInFlightKeyPrefix + sessionID.String()
		ok, err := g.redisClient.SetNX(ctx, key, entry.token, g.ttl).Result()
		if err != nil {
			g.inflight.Delete(sessionID)
			return nil, fmt.Errorf("acquire submission lock for session %s: %w", sessionID, err)
		}
		if !ok {
			g.inflight.Delete(sessionID)
			return nil, ErrSubmissionInFlight
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(sessionID, entry) })
	}, nil
}

// InFlight reports whether this process is currently submitting for the session
func (g *SubmissionGuard) InFlight(sessionID uuid.UUID) bool {
	_, ok := g.inflight.Load(sessionID)
	return ok
}

func (g *SubmissionGuard) release(sessionID uuid.UUID, entry *inflightEntry) {
	if g.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key := RedisInFlightKeyPrefix + sessionID.String()
		if err := releaseScript.Run(ctx, g.redisClient, []string{key}, entry.token).Err(); err != nil {
			// the key expires on its own after ttl
			g.log.Warnf("Failed to release submission lock for session %s: %+v", sessionID, err)
		}
	}

	g.inflight.CompareAndDelete(sessionID, entry)
}

func (g *SubmissionGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(guardCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.cleanupStale()
		case <-g.stopChan:
			return
		}
	}
}

func (g *SubmissionGuard) cleanupStale() {
	threshold := time.Now().Add(-g.ttl).Unix()
	removed := 0

	g.inflight.Range(func(key, value any) bool {
		entry := value.(*inflightEntry)
		if entry.acquiredAt.Load() < threshold {
			if g.inflight.CompareAndDelete(key, entry) {
				removed++
			}
		}
		return true
	})

	if removed > 0 {
		g.log.Warnf("Dropped %d stale submission locks", removed)
	}
}
