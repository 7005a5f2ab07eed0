package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaivue/flowscript/pkg/converter"
)

func TestConversionKey(t *testing.T) {
	source := "Page.counter = Page.counter + 1;"

	k1 := ConversionKey(source, converter.Options{FunctionName: "onClick"})
	k2 := ConversionKey(source, converter.Options{FunctionName: "onClick"})
	assert.Equal(t, k1, k2, "same source and options must hash identically")
	assert.Len(t, k1, 64)

	// Different sources, names, or namespaces produce different keys
	k3 := ConversionKey("Page.counter = 0;", converter.Options{FunctionName: "onClick"})
	k4 := ConversionKey(source, converter.Options{FunctionName: "onSubmit"})
	k5 := ConversionKey(source, converter.Options{FunctionName: "onClick", Namespace: "App"})
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.NotEqual(t, k1, k5)
}

func TestConversionCacheRoundTrip(t *testing.T) {
	conv := converter.New()
	source := "Page.count = Page.count + 1;"
	opts := converter.Options{FunctionName: "onClick"}
	result := conv.Convert(source, opts)
	require.NotNil(t, result.Function)
	require.Empty(t, result.Errors)

	cc := NewConversionCache(ConversionCacheOptions{MaxEntries: 10})
	key := ConversionKey(source, opts)

	_, found := cc.Get(key)
	assert.False(t, found)

	require.NoError(t, cc.Set(key, result))
	assert.Equal(t, 1, cc.Len())

	cached, found := cc.Get(key)
	require.True(t, found)
	require.NotNil(t, cached.Function)
	assert.Equal(t, "onClick", cached.Function.Name)
	assert.Equal(t, len(result.Function.Steps), len(cached.Function.Steps))
	assert.Equal(t, result.Function.StepOrder(), cached.Function.StepOrder())

	stats := cc.Stats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)

	cc.Clear()
	assert.Equal(t, 0, cc.Len())
}

func TestConversionStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversions.msgpack")

	conv := converter.New()
	source := "Store.theme = 'dark';"
	opts := converter.Options{FunctionName: "toggleTheme", Namespace: "UI"}
	result := conv.Convert(source, opts)
	require.Empty(t, result.Errors)

	store := NewConversionStore(ConversionCacheOptions{MaxEntries: 10}, path)
	key := ConversionKey(source, opts)
	require.NoError(t, store.Set(key, result))
	require.NoError(t, store.Save())

	restored := NewConversionStore(ConversionCacheOptions{MaxEntries: 10}, path)
	require.NoError(t, restored.Load())
	assert.Equal(t, 1, restored.Len())

	cached, found := restored.Get(key)
	require.True(t, found)
	require.NotNil(t, cached.Function)
	assert.Equal(t, "toggleTheme", cached.Function.Name)
	assert.Equal(t, "UI", cached.Function.Namespace)
}

func TestConversionStoreMissingFile(t *testing.T) {
	store := NewConversionStore(ConversionCacheOptions{}, filepath.Join(t.TempDir(), "absent.msgpack"))
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestConversionStoreNoPath(t *testing.T) {
	store := NewConversionStore(ConversionCacheOptions{}, "")
	assert.NoError(t, store.Load())
	assert.Error(t, store.Save())
}
