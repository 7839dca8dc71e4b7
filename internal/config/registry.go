package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by the Create methods for a name no
// factory was registered under.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Provider kinds accepted by [Registry.Names].
const (
	KindSTT   = "stt"
	KindAudio = "audio"
)

// Registry maps provider names from the config file to constructors. It is
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	stt   factories[stt.Provider]
	audio factories[audio.Device]
}

type factories[T any] map[string]func(ProviderEntry) (T, error)

func (f factories[T]) create(kind string, entry ProviderEntry) (T, error) {
	factory, ok := f[entry.Name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q (have %s)",
			ErrProviderNotRegistered, kind, entry.Name, strings.Join(f.names(), ", "))
	}
	return factory(entry)
}

func (f factories[T]) names() []string {
	return slices.Sorted(maps.Keys(f))
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stt:   make(factories[stt.Provider]),
		audio: make(factories[audio.Device]),
	}
}

// RegisterSTT registers a transcriber factory under name, replacing any
// earlier one.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterAudio registers a capture device factory under name. A factory may
// return a nil device to mean voice input is disabled.
func (r *Registry) RegisterAudio(name string, factory func(ProviderEntry) (audio.Device, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio[name] = factory
}

// CreateSTT builds the transcriber named by entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stt.create(KindSTT, entry)
}

// CreateAudio builds the capture device named by entry.Name.
func (r *Registry) CreateAudio(entry ProviderEntry) (audio.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.audio.create(KindAudio, entry)
}

// Names returns the sorted names registered for kind, or nil for an unknown
// kind.
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case KindSTT:
		return r.stt.names()
	case KindAudio:
		return r.audio.names()
	}
	return nil
}
