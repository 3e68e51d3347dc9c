package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvImplementations(t *testing.T) map[string]KV {
	t.Helper()

	file, err := NewFileKV(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	db, err := NewSQLiteKV(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   file,
		"sqlite": db,
	}
}

func TestKVGetSet(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			got, err := kv.Get("missing")
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, kv.Set(map[string][]byte{
				"a": []byte(`{"x":1}`),
				"b": []byte(`"hello"`),
			}))

			got, err = kv.Get("a", "b", "c")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.JSONEq(t, `{"x":1}`, string(got["a"]))
			assert.JSONEq(t, `"hello"`, string(got["b"]))

			require.NoError(t, kv.Set(map[string][]byte{"a": []byte(`[]`)}))
			got, err = kv.Get("a", "b")
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(got["a"]))
			assert.JSONEq(t, `"hello"`, string(got["b"]))
		})
	}
}

func TestFileKVReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(map[string][]byte{"hasConsented": []byte("true")}))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	got, err := reopened.Get("hasConsented")
	require.NoError(t, err)
	assert.JSONEq(t, "true", string(got["hasConsented"]))
}

func TestFileKVRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	require.NoError(t, kv.Set(map[string][]byte{"a": []byte("1")}))
	err = kv.Set(map[string][]byte{"a": []byte("2"), "b": []byte("{broken")})
	require.Error(t, err)

	// The failed batch leaves the earlier state untouched.
	got, err := kv.Get("a", "b")
	require.NoError(t, err)
	assert.JSONEq(t, "1", string(got["a"]))
	assert.NotContains(t, got, "b")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.JSONEq(t, "1", string(onDisk["a"]))
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileKV(path)
	assert.Error(t, err)
}

func TestSQLiteKVInMemory(t *testing.T) {
	kv, err := NewSQLiteKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set(map[string][]byte{"k": []byte(`{"v":true}`)}))
	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":true}`, string(got["k"]))
}

func TestSQLiteKVReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")

	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(map[string][]byte{"memory": []byte(`[{"key":"a","value":"b"}]`)}))
	require.NoError(t, kv.Close())

	kv, err = NewSQLiteKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get("memory")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"a","value":"b"}]`, string(got["memory"]))
}
