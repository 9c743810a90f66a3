package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache_PutGet(t *testing.T) {
	c := NewResponseCache(time.Hour)

	payload := json.RawMessage(`{"results":[1,2,3]}`)
	c.Put("db_X", payload)

	got, found := c.Get("db_X")
	require.True(t, found)
	assert.Equal(t, payload, got)

	_, found = c.Get("db_Y")
	assert.False(t, found)
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	c := NewResponseCache(100 * time.Millisecond)

	c.Put("k", json.RawMessage(`"v"`))

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, json.RawMessage(`"v"`), got)

	time.Sleep(150 * time.Millisecond)

	_, found = c.Get("k")
	assert.False(t, found)
}

func TestResponseCache_Overwrite(t *testing.T) {
	c := NewResponseCache(time.Hour)

	c.Put("k", json.RawMessage(`"old"`))
	c.Put("k", json.RawMessage(`"new"`))

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, json.RawMessage(`"new"`), got)
}

func TestResponseCache_PatternInvalidation(t *testing.T) {
	c := NewResponseCache(time.Hour)

	c.Put("db_A", json.RawMessage(`"a"`))
	c.Put("db_B", json.RawMessage(`"b"`))
	c.Put("other_C", json.RawMessage(`"c"`))

	removed := c.Invalidate("db_")
	assert.Equal(t, 2, removed)

	_, found := c.Get("db_A")
	assert.False(t, found)
	_, found = c.Get("db_B")
	assert.False(t, found)

	got, found := c.Get("other_C")
	require.True(t, found)
	assert.Equal(t, json.RawMessage(`"c"`), got)
}

func TestResponseCache_Clear(t *testing.T) {
	c := NewResponseCache(time.Hour)

	c.Put("db_A", json.RawMessage(`"a"`))
	c.Put("other_C", json.RawMessage(`"c"`))
	require.Equal(t, 2, c.Len())

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, found := c.Get("db_A")
	assert.False(t, found)
}

func TestResponseCache_PutCopiesValue(t *testing.T) {
	c := NewResponseCache(time.Hour)

	payload := json.RawMessage(`{"a":1}`)
	c.Put("k", payload)
	payload[2] = 'x'

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, json.RawMessage(`{"a":1}`), got)
}

func TestResponseCache_ConcurrentAccess(t *testing.T) {
	c := NewResponseCache(time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c.Put(fmt.Sprintf("db_%d", i%10), json.RawMessage(`{"n":1}`))
		}
	}()

	for i := 0; i < 500; i++ {
		if value, found := c.Get(fmt.Sprintf("db_%d", i%10)); found {
			// a concurrent overwrite must never yield a torn value
			assert.Equal(t, json.RawMessage(`{"n":1}`), value)
		}
		if i%100 == 0 {
			c.Invalidate("db_")
		}
	}
	<-done
}
