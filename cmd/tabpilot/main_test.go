package main

import (
	"bytes"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/types"
)

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	kv, closeKV, err := openStorage(filepath.Join(dir, "chats.db"))
	require.NoError(t, err)
	require.NotNil(t, closeKV)
	assert.IsType(t, &session.SQLiteKV{}, kv)
	require.NoError(t, closeKV())

	kv, closeKV, err = openStorage(filepath.Join(dir, "storage.json"))
	require.NoError(t, err)
	assert.Nil(t, closeKV)
	assert.IsType(t, &session.FileKV{}, kv)
}

func TestPrintProgress(t *testing.T) {
	events := make(chan *types.AgentEvent, 3)
	events <- types.NewThoughtEvent(0, "looking for the search box")
	events <- types.NewActionStartEvent(0, "search", nil)
	events <- types.NewTokenUsageEvent(10, 2)
	close(events)

	var out bytes.Buffer
	printProgress(&out, events)
	assert.Equal(t, "💭 looking for the search box\n🌐 search\n", out.String())
}

func TestOverrides(t *testing.T) {
	c := &Config{Provider: "openai", Model: "gpt-4o", APIKey: "k", BaseURL: "http://x"}
	o := c.overrides()
	assert.Equal(t, "openai", o.Provider)
	assert.Equal(t, "gpt-4o", o.Model)
	assert.Equal(t, "k", o.APIKey)
	assert.Equal(t, "http://x", o.BaseURL)
}

func TestReminderRelay(t *testing.T) {
	relay := &reminderRelay{}

	// Nothing attached yet: fired reminders are dropped.
	relay.fire(types.Reminder{ID: "early"})

	var fired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.fire(types.Reminder{ID: "racing"})
		}()
	}
	relay.attach(func(r types.Reminder) { fired.Add(1) })
	wg.Wait()

	before := fired.Load()
	relay.fire(types.Reminder{ID: "late"})
	assert.Equal(t, before+1, fired.Load())
}
