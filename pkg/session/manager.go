package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/tabpilot/pkg/types"
)

// Persisted keys.
const (
	KeyConsent        = "hasConsented"
	KeySessions       = "chatSessions"
	KeyCurrentSession = "currentSessionId"
	KeyMemory         = "memory"
	KeyReminders      = "reminders"
	KeyHistory        = "history"

	// KeyLegacyMessages holds the flat message list written by old versions.
	KeyLegacyMessages = "chatMessages"
)

// MaxInteractions bounds the local interaction history.
const MaxInteractions = 50

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidMemory is returned when a memory key or value is blank.
	ErrInvalidMemory = errors.New("memory key and value must not be empty")
)

// Interaction is one completed exchange kept in the local history.
type Interaction struct {
	Timestamp   int64  `json:"timestamp"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	UserMessage string `json:"userMessage"`
	AIResponse  string `json:"aiResponse"`
}

// Manager owns the session list and the other locally persisted state.
// Sessions are kept newest first. All mutations are written through to the KV.
type Manager struct {
	mu        sync.Mutex
	kv        KV
	sessions  []*types.ChatSession
	currentID string
	memory    []types.MemoryItem
	consented bool
	now       func() time.Time
}

// NewManager creates a manager over kv. Call Load before use.
func NewManager(kv KV) *Manager {
	return &Manager{
		kv:  kv,
		now: time.Now,
	}
}

// Load reads persisted state, migrating the legacy flat message list into a
// single session when no sessions exist yet.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.kv.Get(KeyConsent, KeySessions, KeyCurrentSession, KeyMemory, KeyLegacyMessages)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	var (
		sessions []*types.ChatSession
		current  string
		memory   []types.MemoryItem
		consent  bool
		legacy   []types.Message
	)
	if err := decode(raw, KeySessions, &sessions); err != nil {
		return err
	}
	if err := decode(raw, KeyCurrentSession, &current); err != nil {
		return err
	}
	if err := decode(raw, KeyMemory, &memory); err != nil {
		return err
	}
	if err := decode(raw, KeyConsent, &consent); err != nil {
		return err
	}
	if err := decode(raw, KeyLegacyMessages, &legacy); err != nil {
		return err
	}

	kept := sessions[:0]
	for _, s := range sessions {
		if s != nil && s.ID != "" {
			kept = append(kept, s)
		}
	}
	m.sessions, m.currentID, m.memory, m.consented = kept, current, memory, consent

	if len(m.sessions) == 0 && len(legacy) > 0 {
		s := types.NewChatSession()
		s.Title = types.LegacySessionTitle
		s.Messages = legacy
		s.Timestamp = m.now().UnixMilli()
		m.sessions = []*types.ChatSession{s}
		m.currentID = s.ID

		values, err := m.sessionValuesLocked()
		if err != nil {
			return err
		}
		values[KeyLegacyMessages] = []byte("[]")
		if err := m.kv.Set(values); err != nil {
			return fmt.Errorf("failed to save migrated sessions: %w", err)
		}
		return nil
	}

	if m.findLocked(m.currentID) < 0 {
		m.currentID = ""
		if len(m.sessions) > 0 {
			m.currentID = m.sessions[0].ID
		}
	}
	return nil
}

func decode(raw map[string][]byte, key string, out any) error {
	v, ok := raw[key]
	if !ok || len(v) == 0 {
		return nil
	}
	if err := json.Unmarshal(v, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (m *Manager) findLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range m.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// sessionValuesLocked encodes the session list and current id for one Set.
func (m *Manager) sessionValuesLocked() (map[string][]byte, error) {
	list := m.sessions
	if list == nil {
		list = []*types.ChatSession{}
	}
	sessions, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	current, err := json.Marshal(m.currentID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current session: %w", err)
	}
	return map[string][]byte{
		KeySessions:       sessions,
		KeyCurrentSession: current,
	}, nil
}

// saveSessionsLocked writes the session list and current id together.
func (m *Manager) saveSessionsLocked() error {
	values, err := m.sessionValuesLocked()
	if err != nil {
		return err
	}
	if err := m.kv.Set(values); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

func copySession(s *types.ChatSession) *types.ChatSession {
	c := *s
	c.Messages = append([]types.Message(nil), s.Messages...)
	return &c
}

// Sessions returns copies of all sessions, newest first.
func (m *Manager) Sessions() []types.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.ChatSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *copySession(s))
	}
	return out
}

// CurrentID returns the id of the current session, empty when there is none.
func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

// Current returns a copy of the current session, or nil.
func (m *Manager) Current() *types.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.findLocked(m.currentID); i >= 0 {
		return copySession(m.sessions[i])
	}
	return nil
}

// NewSession creates an empty session and makes it current.
func (m *Manager) NewSession() (*types.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.newSessionLocked()
	if err := m.saveSessionsLocked(); err != nil {
		return nil, err
	}
	return copySession(s), nil
}

func (m *Manager) newSessionLocked() *types.ChatSession {
	s := types.NewChatSession()
	s.Timestamp = m.now().UnixMilli()
	m.sessions = append([]*types.ChatSession{s}, m.sessions...)
	m.currentID = s.ID
	return s
}

// SelectSession makes id current.
func (m *Manager) SelectSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.currentID = id
	return m.saveSessionsLocked()
}

// DeleteSession removes id. Deleting the current session selects the first
// remaining one, or creates a new session when none remain.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)

	if m.currentID == id {
		if len(m.sessions) > 0 {
			m.currentID = m.sessions[0].ID
		} else {
			m.newSessionLocked()
		}
	}
	return m.saveSessionsLocked()
}

// RenameSession sets the title of id.
func (m *Manager) RenameSession(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("session title must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.sessions[i].Title = title
	return m.saveSessionsLocked()
}

// EnsureCurrent returns the current session, creating one if needed.
func (m *Manager) EnsureCurrent() (*types.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.findLocked(m.currentID); i >= 0 {
		return copySession(m.sessions[i]), nil
	}
	s := m.newSessionLocked()
	if err := m.saveSessionsLocked(); err != nil {
		return nil, err
	}
	return copySession(s), nil
}

// AppendMessage adds msg to the current session, creating one on demand,
// and persists the session list. Nothing changes when the save fails.
func (m *Manager) AppendMessage(msg types.Message) (*types.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prevSessions := append([]*types.ChatSession(nil), m.sessions...)
	prevCurrent := m.currentID

	i := m.findLocked(m.currentID)
	if i < 0 {
		m.newSessionLocked()
		i = 0
	}
	updated := copySession(m.sessions[i])
	updated.Append(msg)
	m.sessions[i] = updated

	if err := m.saveSessionsLocked(); err != nil {
		m.sessions, m.currentID = prevSessions, prevCurrent
		return nil, err
	}
	return copySession(updated), nil
}

// Tail returns the last n messages of the current session.
func (m *Manager) Tail(n int) []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.findLocked(m.currentID); i >= 0 {
		return m.sessions[i].Tail(n)
	}
	return nil
}

// Memory returns the memory items.
func (m *Manager) Memory() []types.MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.MemoryItem(nil), m.memory...)
}

// AddMemory appends a trimmed key/value pair.
func (m *Manager) AddMemory(key, value string) error {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return ErrInvalidMemory
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := append(append([]types.MemoryItem(nil), m.memory...), types.MemoryItem{Key: key, Value: value})
	if err := m.setJSON(KeyMemory, next); err != nil {
		return err
	}
	m.memory = next
	return nil
}

// RemoveMemory deletes the item at index.
func (m *Manager) RemoveMemory(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.memory) {
		return fmt.Errorf("memory index %d out of range", index)
	}
	next := make([]types.MemoryItem, 0, len(m.memory)-1)
	next = append(next, m.memory[:index]...)
	next = append(next, m.memory[index+1:]...)
	if err := m.setJSON(KeyMemory, next); err != nil {
		return err
	}
	m.memory = next
	return nil
}

// Consented reports whether the user accepted the terms.
func (m *Manager) Consented() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consented
}

// AcceptTerms records consent.
func (m *Manager) AcceptTerms() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.setJSON(KeyConsent, true); err != nil {
		return err
	}
	m.consented = true
	return nil
}

// Reminders reads the stored reminders.
func (m *Manager) Reminders() ([]types.Reminder, error) {
	var list []types.Reminder
	if err := m.getJSON(KeyReminders, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveReminders replaces the stored reminders.
func (m *Manager) SaveReminders(list []types.Reminder) error {
	if list == nil {
		list = []types.Reminder{}
	}
	return m.setJSON(KeyReminders, list)
}

// History returns the recorded interactions, oldest first.
func (m *Manager) History() ([]Interaction, error) {
	var list []Interaction
	if err := m.getJSON(KeyHistory, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RecordInteraction appends one exchange to the history, keeping the most
// recent MaxInteractions entries.
func (m *Manager) RecordInteraction(ctx *types.TurnContext, userMessage, aiResponse string) error {
	entry := Interaction{
		Timestamp:   m.now().UnixMilli(),
		UserMessage: userMessage,
		AIResponse:  aiResponse,
	}
	if ctx != nil {
		entry.URL, entry.Title = ctx.URL, ctx.Title
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var list []Interaction
	if err := m.getJSON(KeyHistory, &list); err != nil {
		// A corrupt history is replaced rather than blocking new entries
		list = nil
	}
	list = append(list, entry)
	if len(list) > MaxInteractions {
		list = list[len(list)-MaxInteractions:]
	}
	return m.setJSON(KeyHistory, list)
}

func (m *Manager) getJSON(key string, out any) error {
	raw, err := m.kv.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return decode(raw, key, out)
}

func (m *Manager) setJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := m.kv.Set(map[string][]byte{key: b}); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
