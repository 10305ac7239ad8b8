package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

func TestSeedEntriesAreValid(t *testing.T) {
	for _, entry := range Seed() {
		assert.NoError(t, entry.Validate(), entry.Key)
	}
}

func TestMatchByButtonAndCommand(t *testing.T) {
	store := NewMemoryStore(Seed())

	entry, ok := store.Match("  " + ButtonAbout + " ")
	require.True(t, ok)
	assert.Equal(t, "about", entry.Key)

	entry, ok = store.Match("/HELP@lead_bot")
	require.True(t, ok)
	assert.Equal(t, "help", entry.Key)

	_, ok = store.Match("about")
	assert.False(t, ok, "plain words are not keywords")
}

func TestWelcomeRendersEscapedName(t *testing.T) {
	store := NewMemoryStore(Seed())
	entry, ok := store.Match("/start")
	require.True(t, ok)

	reply, err := entry.Render(Data{Name: "<Ann>"})
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "Добро пожаловать, &lt;Ann&gt;!")
	assert.Equal(t, intake.KeyboardMenu, reply.Keyboard)
	assert.Equal(t, intake.ParseModeHTML, reply.ParseMode)
}

func TestReplaceSwapsEntries(t *testing.T) {
	store := NewMemoryStore(Seed())

	store.Replace([]Entry{{Key: "only", Keywords: []string{"/only"}, Text: "x"}})

	_, ok := store.Match("/start")
	assert.False(t, ok)
	_, ok = store.Match("/only")
	assert.True(t, ok)
	assert.Len(t, store.List(), 1)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	doc := `entries:
  - key: about
    keywords: ["/about", "About us"]
    keyboard: menu
    text: "<b>We build things</b>"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "about", entries[0].Key)
	assert.Equal(t, intake.KeyboardMenu, entries[0].Keyboard)
	assert.Equal(t, []string{"/about", "About us"}, entries[0].Keywords)
}

func TestLoadFileRejectsBrokenEntries(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("entries: []\n"), 0o644))
	_, err := LoadFile(empty)
	assert.Error(t, err)

	noKeywords := filepath.Join(dir, "nokw.yaml")
	require.NoError(t, os.WriteFile(noKeywords, []byte("entries:\n  - key: x\n    text: y\n"), 0o644))
	_, err = LoadFile(noKeywords)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - key: a\n    keywords: [\"/a\"]\n    text: a\n"), 0o644))

	store := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, store, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool {
		// Rewrite until the watcher has registered and picked the change up.
		_ = os.WriteFile(path, []byte("entries:\n  - key: b\n    keywords: [\"/b\"]\n    text: b\n"), 0o644)
		_, ok := store.Match("/b")
		return ok
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
