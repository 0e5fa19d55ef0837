package tool

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string, typ Type) Tool {
	return FuncTool{
		Def: Definition{Name: name, Type: typ, Description: "echoes input"},
		Fn: func(ctx context.Context, args map[string]any) (Result, error) {
			return Result{Success: true, Result: args}, nil
		},
	}
}

func TestRegistry_RegisterGetList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("calculator", TypeFunction), false))
	require.NoError(t, r.Register(echoTool("llm", TypeLLM), false))

	got, err := r.Get("calculator")
	require.NoError(t, err)
	res, _ := got.Execute(context.Background(), map[string]any{"a": 1})
	assert.True(t, res.Success)

	names := r.List("")
	require.Len(t, names, 2)
	assert.Equal(t, "calculator", names[0].Name)
	assert.Equal(t, "llm", names[1].Name)

	llmOnly := r.List(TypeLLM)
	require.Len(t, llmOnly, 1)
	assert.Equal(t, "llm", llmOnly[0].Name)
}

func TestRegistry_DuplicateWithoutReplace(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("x", TypeFunction), false))

	err := r.Register(echoTool("x", TypeFunction), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	require.NoError(t, r.Register(echoTool("x", TypeFunction), true))
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = r.Unregister("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("x", TypeFunction), false))
	r.Clear()
	assert.False(t, r.Has("x"))
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
}

func TestRegistry_RegisterFromSource_TagsProvenance(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("local-tool", TypeFunction), false))

	src := NewLocalSource("plugins", echoTool("search", TypeAPI), echoTool("fetch", TypeAPI))
	require.NoError(t, r.RegisterFromSource(context.Background(), src, false))

	bySource := r.ListBySource()
	require.Len(t, bySource["local"], 1)
	assert.Equal(t, "local-tool", bySource["local"][0].Name)

	require.Len(t, bySource["plugins"], 2)
	assert.Equal(t, "fetch", bySource["plugins"][0].Name)
	assert.Equal(t, "search", bySource["plugins"][1].Name)

	got, err := r.Get("search")
	require.NoError(t, err)
	res, _ := got.Execute(context.Background(), map[string]any{"q": "go"})
	assert.True(t, res.Success)
}

func TestRegistry_RegisterFromSource_DuplicateWithoutReplace(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search", TypeAPI), false))

	src := NewLocalSource("plugins", echoTool("search", TypeAPI))
	err := r.RegisterFromSource(context.Background(), src, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistry_ConcurrentReadWrite(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		name := string(rune('a' + i%26))
		go func() {
			defer wg.Done()
			_ = r.Register(echoTool(name, TypeFunction), true)
		}()
		go func() {
			defer wg.Done()
			r.List("")
		}()
	}
	wg.Wait()
}
