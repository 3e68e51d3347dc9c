package config

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/llm"
)

// memStore keeps sections in memory and counts saves.
type memStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{sections: make(map[string]map[string]interface{})}
}

func (m *memStore) Load() error { return m.loadErr }

func (m *memStore) Save() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *memStore) GetSection(id string) (map[string]interface{}, error) {
	return cloneSection(m.sections[id]), nil
}

func (m *memStore) SetSection(id string, data map[string]interface{}) error {
	m.sections[id] = cloneSection(data)
	return nil
}

func (m *memStore) GetAll() (map[string]map[string]interface{}, error) { return m.sections, nil }

func (m *memStore) SetAll(data map[string]map[string]interface{}) error {
	m.sections = data
	return nil
}

func TestManager_RegisterSection(t *testing.T) {
	m := NewManager(newMemStore())

	require.NoError(t, m.RegisterSection(NewUISection()))
	require.NoError(t, m.RegisterSection(NewLLMSection()))
	assert.ErrorContains(t, m.RegisterSection(NewUISection()), `section "ui" already registered`)

	ids := []string{}
	for _, s := range m.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{SectionIDUI, SectionIDLLM}, ids)

	got, ok := m.GetSection(SectionIDLLM)
	require.True(t, ok)
	assert.IsType(t, &LLMSection{}, got)

	_, ok = m.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	store := newMemStore()
	store.sections[SectionIDLLM] = map[string]interface{}{
		"provider":       "openai",
		"openai_api_key": "sk-test",
	}

	m := NewManager(store)
	section := NewLLMSection()
	require.NoError(t, m.RegisterSection(section))
	require.NoError(t, m.LoadAll())

	assert.Equal(t, llm.ProviderOpenAI, section.GetProvider())
	assert.Equal(t, "sk-test", section.GetAPIKey(llm.ProviderOpenAI))
}

func TestManager_LoadAllErrors(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		store := newMemStore()
		store.loadErr = errors.New("disk gone")
		m := NewManager(store)
		assert.ErrorContains(t, m.LoadAll(), "disk gone")
	})

	t.Run("section", func(t *testing.T) {
		store := newMemStore()
		store.sections[SectionIDLLM] = map[string]interface{}{"provider": "netscape"}
		m := NewManager(store)
		require.NoError(t, m.RegisterSection(NewLLMSection()))
		assert.ErrorContains(t, m.LoadAll(), "failed to apply section llm")
	})
}

func TestManager_SaveAll(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	section := NewLLMSection()
	require.NoError(t, m.RegisterSection(section))

	section.SetProvider(llm.ProviderClaude)
	section.SetAPIKey(llm.ProviderClaude, "sk-ant")
	require.NoError(t, m.SaveAll())

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "claude", store.sections[SectionIDLLM]["provider"])
	assert.Equal(t, "sk-ant", store.sections[SectionIDLLM]["claude_api_key"])
}

func TestManager_SaveAllValidatesFirst(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	section := NewLLMSection()
	require.NoError(t, m.RegisterSection(section))

	section.SetCustom("://not a url", "local-model")
	err := m.SaveAll()
	assert.ErrorContains(t, err, "invalid section llm")
	assert.Zero(t, store.saves)
	assert.Empty(t, store.sections)
}

func TestManager_SaveAllStoreError(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("read-only")
	m := NewManager(store)
	require.NoError(t, m.RegisterSection(NewUISection()))

	assert.ErrorContains(t, m.SaveAll(), "read-only")
}

func TestManager_ResetAll(t *testing.T) {
	m := NewManager(newMemStore())
	ui := NewUISection()
	require.NoError(t, m.RegisterSection(ui))

	ui.SetShowThoughts(false)
	m.ResetAll()
	assert.True(t, ui.ThoughtsVisible())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(newMemStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.GetSections()
		}()
		go func() {
			defer wg.Done()
			_, _ = m.GetSection(SectionIDUI)
		}()
	}
	require.NoError(t, m.RegisterSection(NewUISection()))
	wg.Wait()

	assert.Len(t, m.GetSections(), 1)
}
