package places

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dinefind/core/internal/models"
)

// logHashLen is how much of a cache key log records may carry. The full
// key never appears in logs.
const logHashLen = 12

// cacheKey canonicalizes provider parameters into a stable SHA-256 hex
// string. Coordinates round to four decimals (about 11 m) so jittery
// GPS fixes from the same spot land on the same entry.
func cacheKey(p models.ProviderParams) string {
	var b strings.Builder
	b.WriteString(string(p.Route))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(p.TextQuery)))
	b.WriteByte('|')
	if p.Bias != nil {
		fmt.Fprintf(&b, "bias=%.4f,%.4f,%d", p.Bias.Lat, p.Bias.Lng, p.Bias.RadiusMeters)
	}
	b.WriteByte('|')
	if p.Center != nil {
		fmt.Fprintf(&b, "center=%.4f,%.4f", p.Center.Lat, p.Center.Lng)
	}
	b.WriteByte('|')
	fmt.Fprintf(&b, "r=%d", p.RadiusMeters)
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Keyword)))
	b.WriteByte('|')
	if p.RankByDistance {
		b.WriteString("rankby=distance")
	}
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(p.GeocodeQuery)))
	b.WriteByte('|')
	b.WriteString(strings.ToUpper(p.Region))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(p.Language))
	b.WriteByte('|')
	if p.OpenNow {
		b.WriteString("opennow")
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// logHash shortens a cache key for logging.
func logHash(key string) string {
	if len(key) <= logHashLen {
		return key
	}
	return key[:logHashLen]
}
