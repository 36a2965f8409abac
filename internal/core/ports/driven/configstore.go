package driven

// ConfigStore holds settings as flat dotted keys ("store.uri") and persists
// every change. Typed getters return the zero value for missing keys and
// for values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// Set stores and persists a value. On a failed write the previous
	// value is kept.
	Set(key string, value any) error

	// Unset removes a key so its default applies again. Removing a missing
	// key is a no-op.
	Unset(key string) error

	// Save persists the current values.
	Save() error

	// Load replaces the current values with the persisted ones.
	Load() error

	// Path returns where the values are persisted.
	Path() string
}
