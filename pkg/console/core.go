package console

import (
	"sync"
	"time"

	"github.com/OptimiLabs/velocity-sub007/pkg/archive"
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/ownership"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/OptimiLabs/velocity-sub007/pkg/settings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Sender is the outbound half of the transport the core depends on.
type Sender interface {
	// Send writes a frame; false when the socket is not open.
	Send(frame interface{}) bool
	// IsOpen reports whether the socket is currently open.
	IsOpen() bool
}

// Post-connect terminal ownership sync parameters.
const (
	syncRetries  = 20
	syncInterval = 200 * time.Millisecond
)

// Core ties the store, layout tree, ownership registry, settings, archive
// client and transport together. It implements transport.Dispatcher.
type Core struct {
	store    *Store
	tree     *layout.Tree
	owners   *ownership.Registry
	settings settings.Provider
	sender   Sender
	archive  *archive.Client
	notifier notify.Sink
	logger   *logrus.Entry

	// OrphanTimeoutMs is pushed to the backend on every connect.
	orphanTimeoutMs int

	// Injectable for tests.
	newID        func() string
	now          func() int64
	syncInterval time.Duration

	mu sync.Mutex
	// Highest epoch for which each reconciliation frame has been applied.
	groupsEpoch   uint64
	sessionsEpoch uint64
}

// NewCore wires the console core. archiveClient may be nil when no archive
// service is configured; Archive and Restore then fail cleanly.
func NewCore(store *Store, tree *layout.Tree, owners *ownership.Registry,
	s settings.Provider, sender Sender, archiveClient *archive.Client,
	sink notify.Sink, logger *logrus.Entry, orphanTimeoutMs int) *Core {
	return &Core{
		store:           store,
		tree:            tree,
		owners:          owners,
		settings:        s,
		sender:          sender,
		archive:         archiveClient,
		notifier:        sink,
		logger:          logger,
		orphanTimeoutMs: orphanTimeoutMs,
		newID:           uuid.NewString,
		now:             func() int64 { return time.Now().UnixMilli() },
		syncInterval:    syncInterval,
	}
}

// SetSender installs the transport after construction. The core and the
// transport reference each other (dispatcher one way, sender the other), so
// one of the two is wired late. Must be called before the transport starts.
func (c *Core) SetSender(sender Sender) {
	c.sender = sender
}

// Store exposes the session store for read-side consumers (the TUI).
func (c *Core) Store() *Store { return c.store }

// Tree exposes the layout tree for read-side consumers.
func (c *Core) Tree() *layout.Tree { return c.tree }

// OnConnect runs after every successful socket open: it pushes the orphan
// timeout setting and claims this client's terminals once reconciliation has
// hydrated the layout. The transport calls it with each new epoch.
func (c *Core) OnConnect(epoch uint64) {
	if c.orphanTimeoutMs > 0 {
		c.sender.Send(protocol.NewOrphanTimeout(c.orphanTimeoutMs))
	}
	c.syncActiveTerminals(epoch)
}

// syncActiveTerminals sends pty:sync-active with every terminal id this
// client owns, so the backend keeps those processes alive. Reconciliation
// frames may still be in flight right after connect, so the send is retried
// until the epoch is hydrated, bounded so a dead socket cannot pin the
// goroutine.
func (c *Core) syncActiveTerminals(epoch uint64) {
	for attempt := 0; attempt < syncRetries; attempt++ {
		if c.hydrated(epoch) && c.sender.IsOpen() {
			ids := c.tree.AllTerminalIDs()
			if c.sender.Send(protocol.NewPtySyncActive(ids)) {
				c.logger.WithField("terminals", len(ids)).Debug("Synced terminal ownership")
				return
			}
		}
		time.Sleep(c.syncInterval)
	}
	c.logger.WithField("epoch", epoch).Debug("Gave up syncing terminal ownership")
}

// hydrated reports whether both reconciliation frames for the epoch have
// been applied.
func (c *Core) hydrated(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupsEpoch >= epoch && c.sessionsEpoch >= epoch
}
