// Package cache stores rendered analyses keyed by their inputs.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"

	"github.com/ppiankov/cliniprov/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// AnalysisKey derives the cache key of an analysis. Every input that can change
// the result is hashed: the letter text, every anchor field, the engine
// profile (taxonomy version and digest, risk thresholds) and the linking window.
func AnalysisKey(text string, anchors []model.SourceAnchor, profile string, window int) string {
	h := sha256.New()
	writeField(h, profile)
	writeInt(h, int64(window))
	writeField(h, text)
	writeInt(h, int64(len(anchors)))
	for _, a := range anchors {
		writeField(h, a.ID)
		writeField(h, a.SegmentText)
		writeField(h, a.SourceExcerpt)
		writeField(h, string(a.SourceType))
		writeField(h, a.SourceID)
		writeInt(h, int64(a.StartIndex))
		writeInt(h, int64(a.EndIndex))
		writeInt(h, int64(a.Confidence*1e6))
	}
	return "cliniprov:v2:" + hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed string so field boundaries cannot collide
func writeField(h io.Writer, s string) {
	writeInt(h, int64(len(s)))
	_, _ = h.Write([]byte(s))
}

func writeInt(h io.Writer, n int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	_, _ = h.Write(buf[:])
}
