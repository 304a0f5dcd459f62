// Package imaging deduplicates and compresses image attachments so the
// completion payload carries each image once, at the cheapest resolution
// the current request allows.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"
	"time"

	// Register decoders for the formats chat clients actually send.
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/fathom-chat/contextd/internal/metrics"
	"github.com/fathom-chat/contextd/internal/turn"
)

// ProcessedImage is the derived, non-authoritative form of an attachment.
// The asset store always holds the original; this is computed on demand
// and cached by hash.
type ProcessedImage struct {
	Hash                 string  `json:"hash"`
	Data                 []byte  `json:"data,omitempty"`
	MIMEType             string  `json:"mime_type"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	OriginalSize         int     `json:"original_size"`
	CompressedSize       int     `json:"compressed_size"`
	Quality              int     `json:"quality"`
	CompressionRatio     float64 `json:"compression_ratio"`
	Skipped              bool    `json:"skipped"`
	FullResolution       bool    `json:"full_resolution"`
	IsDuplicateReference bool    `json:"is_duplicate_reference"`
}

// Config holds the processor knobs. Zero values fall back to defaults.
type Config struct {
	ThumbnailDim    int
	Quality         int
	SkipBelowBytes  int
	TriggerKeywords []string
	CacheTTL        time.Duration
}

// DefaultConfig returns the standard processing settings.
func DefaultConfig() Config {
	return Config{
		ThumbnailDim:    256,
		Quality:         60,
		SkipBelowBytes:  50 * 1024,
		TriggerKeywords: DefaultTriggerKeywords(),
		CacheTTL:        30 * time.Minute,
	}
}

// DefaultTriggerKeywords are the phrases that signal the user wants the
// model to inspect an image closely, which selects full resolution.
func DefaultTriggerKeywords() []string {
	return []string{
		"analyze", "read text", "examine", "detail", "zoom",
		"closely", "transcribe", "what does it say",
	}
}

// Processor compresses attachments and memoizes results by content hash.
// Safe for concurrent use.
type Processor struct {
	cfg   Config
	cache *compressionCache
	now   func() time.Time
}

// NewProcessor creates a processor with the given config.
func NewProcessor(cfg Config) *Processor {
	def := DefaultConfig()
	if cfg.ThumbnailDim <= 0 {
		cfg.ThumbnailDim = def.ThumbnailDim
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.SkipBelowBytes <= 0 {
		cfg.SkipBelowBytes = def.SkipBelowBytes
	}
	if len(cfg.TriggerKeywords) == 0 {
		cfg.TriggerKeywords = def.TriggerKeywords
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &Processor{
		cfg:   cfg,
		cache: newCompressionCache(cfg.CacheTTL),
		now:   time.Now,
	}
}

// WantsFullResolution reports whether the message text asks for close
// inspection of the attached images. Pure function of the text and the
// keyword table.
func WantsFullResolution(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Process converts attachments into payload-ready images. The message
// text decides resolution: trigger keywords select the full-resolution
// originals, anything else gets thumbnails. Duplicate-marked refs come
// through as data-free references.
func (p *Processor) Process(refs []turn.ImageRef, messageText string) []ProcessedImage {
	if len(refs) == 0 {
		return nil
	}

	fullRes := WantsFullResolution(messageText, p.cfg.TriggerKeywords)
	out := make([]ProcessedImage, 0, len(refs))
	for i := range refs {
		ref := refs[i]
		EnsureHash(&ref)

		switch {
		case ref.IsDuplicate:
			metrics.ImagesProcessedTotal.WithLabelValues("duplicate").Inc()
			out = append(out, ProcessedImage{
				Hash:                 ref.Hash,
				MIMEType:             ref.MIMEType,
				OriginalSize:         ref.OriginalSize,
				IsDuplicateReference: true,
			})
		case fullRes:
			metrics.ImagesProcessedTotal.WithLabelValues("full_resolution").Inc()
			out = append(out, passthrough(ref, true))
		default:
			out = append(out, p.thumbnail(ref))
		}
	}
	return out
}

// Sweep evicts expired compression-cache entries. Wired to the periodic
// cleanup task.
func (p *Processor) Sweep() int {
	n := p.cache.sweep(p.now())
	if n > 0 {
		slog.Debug("compression cache sweep", "evicted", n)
	}
	return n
}

// CacheLen returns the number of cached compressed images.
func (p *Processor) CacheLen() int {
	return p.cache.len()
}

// thumbnail returns the bounded, re-encoded form of an image, from cache
// when possible. Any decode or encode failure falls back to the original
// bytes: a user-supplied image is never dropped.
func (p *Processor) thumbnail(ref turn.ImageRef) ProcessedImage {
	now := p.now()
	if cached, ok := p.cache.get(ref.Hash, now); ok {
		metrics.ImagesProcessedTotal.WithLabelValues("cache_hit").Inc()
		return cached
	}

	img, err := p.compress(ref)
	if err != nil {
		slog.Warn("image compression failed, passing original through",
			"hash", ref.Hash, "error", err)
		metrics.ImagesProcessedTotal.WithLabelValues("fallback").Inc()
		return passthrough(ref, false)
	}

	if img.Skipped {
		metrics.ImagesProcessedTotal.WithLabelValues("skipped").Inc()
	} else {
		metrics.ImagesProcessedTotal.WithLabelValues("compressed").Inc()
		metrics.ImageCompressionRatio.Observe(img.CompressionRatio)
	}
	p.cache.set(ref.Hash, img, now)
	return img
}

func (p *Processor) compress(ref turn.ImageRef) (ProcessedImage, error) {
	if len(ref.Data) == 0 {
		return ProcessedImage{}, fmt.Errorf("no inline data for %s", ref.Hash)
	}

	src, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	dim := p.cfg.ThumbnailDim

	// Small and already within target dimensions: nothing to gain.
	if len(ref.Data) <= p.cfg.SkipBelowBytes &&
		bounds.Dx() <= dim && bounds.Dy() <= dim {
		out := passthrough(ref, false)
		out.Skipped = true
		out.Width = bounds.Dx()
		out.Height = bounds.Dy()
		return out, nil
	}

	// Fit inside dim x dim, never upscaling.
	thumb := resize.Thumbnail(uint(dim), uint(dim), src, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: p.cfg.Quality}); err != nil {
		return ProcessedImage{}, fmt.Errorf("encoding thumbnail: %w", err)
	}

	tb := thumb.Bounds()
	originalSize := ref.OriginalSize
	if originalSize == 0 {
		originalSize = len(ref.Data)
	}
	compressed := buf.Bytes()

	// Re-encoding can inflate an already well-compressed source. Keep the
	// original then, same policy as the small-image skip path.
	if len(compressed) >= len(ref.Data) {
		out := passthrough(ref, false)
		out.Skipped = true
		out.Width = bounds.Dx()
		out.Height = bounds.Dy()
		return out, nil
	}

	ratio := float64(originalSize) / float64(len(compressed))

	return ProcessedImage{
		Hash:             ref.Hash,
		Data:             compressed,
		MIMEType:         "image/jpeg",
		Width:            tb.Dx(),
		Height:           tb.Dy(),
		OriginalSize:     originalSize,
		CompressedSize:   len(compressed),
		Quality:          p.cfg.Quality,
		CompressionRatio: ratio,
	}, nil
}

func passthrough(ref turn.ImageRef, fullRes bool) ProcessedImage {
	size := ref.OriginalSize
	if size == 0 {
		size = len(ref.Data)
	}
	return ProcessedImage{
		Hash:             ref.Hash,
		Data:             ref.Data,
		MIMEType:         ref.MIMEType,
		Width:            ref.Width,
		Height:           ref.Height,
		OriginalSize:     size,
		CompressedSize:   len(ref.Data),
		CompressionRatio: 1,
		FullResolution:   fullRes,
	}
}
