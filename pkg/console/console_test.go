package console

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/OptimiLabs/velocity-sub007/config"
	"github.com/OptimiLabs/velocity-sub007/pkg/archive"
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/ownership"
	"github.com/OptimiLabs/velocity-sub007/pkg/settings"
	"github.com/sirupsen/logrus"
)

// fakeSender records outbound frames instead of writing a socket.
type fakeSender struct {
	mu     sync.Mutex
	open   bool
	frames []interface{}
}

func (f *fakeSender) Send(frame interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeSender) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeSender) sent() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]interface{}, len(f.frames))
	copy(out, f.frames)
	return out
}

// framesOf extracts the recorded frames of one concrete type, in order.
func framesOf[T any](f *fakeSender) []T {
	var out []T
	for _, frame := range f.sent() {
		if typed, ok := frame.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

// testSettings configures two providers: claude enabled, codex disabled.
func testSettings() settings.Provider {
	cfg := &config.Config{
		PrimaryProvider: "claude",
		Providers: map[string]*config.ProviderConfig{
			"claude": {
				Command:       "claude",
				DefaultModel:  "claude-sonnet-4",
				DefaultEffort: "medium",
				ModelPrefixes: []string{"claude-"},
			},
			"codex": {
				Enabled:       boolPtr(false),
				Command:       "codex",
				DefaultModel:  "gpt-5",
				ModelPrefixes: []string{"gpt-", "o3"},
			},
		},
	}
	return settings.NewFileSettings(cfg)
}

type testFixture struct {
	core     *Core
	store    *Store
	tree     *layout.Tree
	owners   *ownership.Registry
	sender   *fakeSender
	notices  *[]string
	archives *archive.Client
}

func newFixture(t *testing.T, archiveClient *archive.Client) *testFixture {
	t.Helper()

	store := NewStore()
	tree := layout.NewTree()
	owners := ownership.NewRegistry(tree)
	sender := &fakeSender{open: true}

	var notices []string
	sink := notify.Func(func(_ notify.Level, message string) {
		notices = append(notices, message)
	})

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	core := NewCore(store, tree, owners, testSettings(), sender, archiveClient,
		sink, logrus.NewEntry(quiet), 60000)

	// Deterministic ids and clock.
	var seq int
	core.newID = func() string {
		seq++
		return fmt.Sprintf("id-%02d", seq)
	}
	var tick int64
	core.now = func() int64 {
		tick++
		return 1700000000000 + tick
	}
	core.syncInterval = time.Millisecond

	return &testFixture{
		core:     core,
		store:    store,
		tree:     tree,
		owners:   owners,
		sender:   sender,
		notices:  &notices,
		archives: archiveClient,
	}
}
