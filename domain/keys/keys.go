package keys

import (
	"strings"
)

const (
	// PfxCollectionStats is used for prefixing cached collection stats
	PfxCollectionStats = "collectionStats"
	// PfxHealthCheck is used for prefixing health check probe keys
	PfxHealthCheck = "healthCheck"
)

// CustomKey joins key components with the specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// CacheKey joins cache key components
func CacheKey(components ...string) string {
	return CustomKey(":", components...)
}
