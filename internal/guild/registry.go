package guild

import "sync"

// Registry owns every guild's State, keyed by guild ID, with lazy creation.
//
// A single mutex guards the whole map: while one caller holds a state, every
// other caller blocks, for any guild. This serializes all mutations in the
// process, which is the intended trade at current guild counts and command
// rates. It is the scalability ceiling of this design; per-guild locks would
// change the ordering guarantees and are out of scope.
type Registry struct {
	mu             sync.Mutex
	defaultTrigger string
	guilds         map[string]*State
}

// NewRegistry creates an empty registry. New guilds are created with the
// given trigger word, or DefaultTriggerWord when empty.
func NewRegistry(defaultTrigger string) *Registry {
	if defaultTrigger == "" {
		defaultTrigger = DefaultTriggerWord
	}
	return &Registry{
		defaultTrigger: defaultTrigger,
		guilds:         make(map[string]*State),
	}
}

// With runs fn with exclusive access to the guild's state, creating a
// default-configured state on first reference. The registry lock is held for
// the duration of fn, including any persistence calls fn makes: saves must
// observe a consistent snapshot and never race a concurrent mutation.
func (r *Registry) With(guildID string, fn func(*State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.guilds[guildID]
	if !ok {
		state = NewState(r.defaultTrigger)
		r.guilds[guildID] = state
	}
	return fn(state)
}

// Seed installs a loaded state for a guild, replacing any existing entry.
// Used by the startup load path before commands are dispatched.
func (r *Registry) Seed(guildID string, state *State) {
	if state == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guilds[guildID] = state
}

// GuildIDs returns the IDs of every resident guild state.
func (r *Registry) GuildIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.guilds))
	for id := range r.guilds {
		ids = append(ids, id)
	}
	return ids
}
