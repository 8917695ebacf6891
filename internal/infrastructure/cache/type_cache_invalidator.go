package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// TypeDefinitionsChannel is the NOTIFY channel raised by the type_definitions trigger
const TypeDefinitionsChannel = "type_definitions_changed"

// TypeCache is the cache the invalidator keeps consistent across instances
type TypeCache interface {
	// InvalidateGraph drops cached definitions of one graph
	InvalidateGraph(ctx context.Context, graphID string)

	// InvalidateAll drops every cached definition
	InvalidateAll(ctx context.Context)
}

// TypeCacheInvalidator listens for type definition changes made by any instance
// and evicts the affected graph from the local cache.
type TypeCacheInvalidator struct {
	mu       sync.Mutex
	connStr  string
	target   TypeCache
	logger   *zap.Logger
	listener *pq.Listener
	stopCh   chan struct{}
	done     chan struct{}
	stopped  bool
}

// NewTypeCacheInvalidator creates a TypeCacheInvalidator.
// connStr is the PostgreSQL connection string used for LISTEN.
func NewTypeCacheInvalidator(connStr string, target TypeCache, logger *zap.Logger) *TypeCacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeCacheInvalidator{
		connStr: connStr,
		target:  target,
		logger:  logger,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins listening on TypeDefinitionsChannel
func (m *TypeCacheInvalidator) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			m.logger.Warn("type cache listener problem", zap.Int("event", int(ev)), zap.Error(err))
		}
	}

	m.listener = pq.NewListener(m.connStr, 10*time.Second, time.Minute, reportProblem)
	if err := m.listener.Listen(TypeDefinitionsChannel); err != nil {
		m.listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", TypeDefinitionsChannel, err)
	}

	go m.run(m.listener.Notify)

	m.logger.Info("type cache invalidator started", zap.String("channel", TypeDefinitionsChannel))
	return nil
}

// Stop stops listening and waits for the notification loop to exit
func (m *TypeCacheInvalidator) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()

	if m.listener == nil {
		return nil
	}
	<-m.done
	return m.listener.Close()
}

func (m *TypeCacheInvalidator) run(notify <-chan *pq.Notification) {
	defer close(m.done)

	for {
		select {
		case <-m.stopCh:
			return
		case n := <-notify:
			m.dispatch(n)
		case <-time.After(90 * time.Second):
			go func() {
				if err := m.listener.Ping(); err != nil {
					m.logger.Warn("type cache listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// dispatch applies one notification. A nil notification means the connection
// was re-established and events may have been missed.
func (m *TypeCacheInvalidator) dispatch(n *pq.Notification) {
	ctx := context.Background()
	if n == nil || n.Extra == "" {
		m.logger.Info("type cache reset after listener reconnect")
		m.target.InvalidateAll(ctx)
		return
	}

	m.logger.Debug("type definitions changed", zap.String("graph_id", n.Extra))
	m.target.InvalidateGraph(ctx, n.Extra)
}
