package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runStoreContract(t *testing.T, store Store) {
	// miss
	_, err := store.Get("companion_attendees")
	assert.True(t, errors.Is(err, ErrKeyNotFound), "A miss did not return ErrKeyNotFound")

	// set then get
	err = store.Set("companion_attendees", []byte(`{"data":[]}`))
	assert.Nil(t, err, "There was an unexpected error writing a value")
	value, err := store.Get("companion_attendees")
	assert.Nil(t, err, "There was an unexpected error reading a value")
	assert.Equal(t, `{"data":[]}`, string(value), "The value read back did not match")

	// wholesale replace
	err = store.Set("companion_attendees", []byte(`{"data":[1]}`))
	assert.Nil(t, err, "There was an unexpected error replacing a value")
	value, _ = store.Get("companion_attendees")
	assert.Equal(t, `{"data":[1]}`, string(value), "The replaced value did not match")

	// prefix enumeration skips unrelated keys
	store.Set("companion_sponsors", []byte(`{}`))
	store.Set("other_app_state", []byte(`{}`))
	keys, err := store.Keys("companion_")
	assert.Nil(t, err, "There was an unexpected error enumerating keys")
	assert.ElementsMatch(t, []string{"companion_attendees", "companion_sponsors"}, keys, "Prefix enumeration returned the wrong keys")

	// remove is idempotent
	err = store.Remove("companion_attendees")
	assert.Nil(t, err, "There was an unexpected error removing a key")
	err = store.Remove("companion_attendees")
	assert.Nil(t, err, "Removing an absent key returned an error")
	_, err = store.Get("companion_attendees")
	assert.True(t, errors.Is(err, ErrKeyNotFound), "A removed key was still readable")
}

func TestMemStoreContract(t *testing.T) {
	runStoreContract(t, NewMemStore())
}

func TestFileStoreContract(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	assert.Nil(t, err, "There was an unexpected error creating the file store")
	runStoreContract(t, store)
}

func TestMemStoreFailure(t *testing.T) {
	store := NewMemStore()
	store.Set("companion_agenda_items", []byte(`{}`))

	store.FailWith(ErrQuotaExceeded)
	err := store.Set("companion_agenda_items", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrQuotaExceeded), "The simulated failure was not returned on write")
	_, err = store.Get("companion_agenda_items")
	assert.True(t, errors.Is(err, ErrQuotaExceeded), "The simulated failure was not returned on read")

	store.FailWith(nil)
	_, err = store.Get("companion_agenda_items")
	assert.Nil(t, err, "The store did not recover after the failure cleared")
}

func TestMemStoreCopiesValues(t *testing.T) {
	store := NewMemStore()
	value := []byte(`{"data":1}`)
	store.Set("companion_sponsors", value)
	value[0] = 'X'

	stored, _ := store.Get("companion_sponsors")
	assert.Equal(t, `{"data":1}`, string(stored), "The store aliased the caller's byte slice")
}

func TestFileStoreRejectsPathEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	assert.Nil(t, err, "There was an unexpected error creating the file store")

	for _, key := range []string{"../../etc/escape", "..", `..\windows`, "nested/key", ""} {
		err = store.Set(key, []byte(`{}`))
		assert.True(t, errors.Is(err, ErrInvalidKey), "Writing key %q did not return ErrInvalidKey", key)
		_, err = store.Get(key)
		assert.True(t, errors.Is(err, ErrInvalidKey), "Reading key %q did not return ErrInvalidKey", key)
		err = store.Remove(key)
		assert.True(t, errors.Is(err, ErrInvalidKey), "Removing key %q did not return ErrInvalidKey", key)
	}

	// nothing escaped the store directory
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(dir)), "etc", "escape.json")); err == nil {
		t.Fatal("a path-escaping key created a file outside the store directory")
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	store.Set("companion_announcements", []byte(`{"data":[]}`))

	reopened, err := NewFileStore(dir)
	assert.Nil(t, err, "There was an unexpected error reopening the file store")
	value, err := reopened.Get("companion_announcements")
	assert.Nil(t, err, "The value was lost across a reopen")
	assert.Equal(t, `{"data":[]}`, string(value), "The value changed across a reopen")
}
