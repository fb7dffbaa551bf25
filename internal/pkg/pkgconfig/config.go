package pkgconfig

// Config is the read-only view of application settings.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	// GetArray splits a comma separated value, dropping empty items.
	GetArray(key string) []string
	Close() error
}
