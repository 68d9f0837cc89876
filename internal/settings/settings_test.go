package settings

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
)

func newKV() *kvstore.Fallback {
	return kvstore.NewMemory(log.New(&bytes.Buffer{}, "", 0))
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore(newKV())
	d := s.Get()
	for _, c := range audio.AllCues() {
		assert.True(t, d.AudioCues.Enabled(c), "cue %s", c)
	}
	assert.Equal(t, 3, d.HoldCountdown)
	assert.False(t, d.DeloadMode)
	assert.Equal(t, 3, d.TotalSets())
}

func TestStore_PersistsChanges(t *testing.T) {
	kv := newKV()
	s := NewStore(kv)
	s.SetCueEnabled(audio.CueRestWarning, false)
	require.NoError(t, s.SetHoldCountdown(2))
	s.SetDeloadMode(true)

	reloaded := NewStore(kv).Get()
	assert.False(t, reloaded.AudioCues.RestWarning)
	assert.True(t, reloaded.AudioCues.RestComplete)
	assert.Equal(t, 2, reloaded.HoldCountdown)
	assert.Equal(t, 2, reloaded.TotalSets())
}

func TestStore_InvalidCountdown(t *testing.T) {
	kv := newKV()
	s := NewStore(kv)
	assert.ErrorIs(t, s.SetHoldCountdown(5), ErrInvalidCountdown)
	assert.Equal(t, 3, s.Get().HoldCountdown)

	// a bad stored value is sanitized on load
	kv.Save(storageKey, Data{HoldCountdown: 9})
	assert.Equal(t, 3, NewStore(kv).Get().HoldCountdown)
}

func TestStore_CueGate(t *testing.T) {
	s := NewStore(newKV())
	s.SetCueEnabled(audio.CueCountdown, false)
	assert.False(t, s.CueEnabled(audio.CueCountdown))
	assert.True(t, s.CueEnabled(audio.CueSetComplete))
	assert.False(t, s.CueEnabled(audio.Cue("fanfare")))
}

func TestStore_ListenAndReset(t *testing.T) {
	s := NewStore(newKV())
	var seen []Data
	s.Listen(func(d Data) { seen = append(seen, d) })

	s.SetDeloadMode(true)
	s.SetDeloadMode(true)
	s.Reset()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].DeloadMode)
	assert.Equal(t, Defaults(), seen[1])
}
