package scraper

import "math/rand/v2"

// Fingerprint is the browser identity presented by one attempt.
type Fingerprint struct {
	UserAgent      string
	Width          int
	Height         int
	AcceptLanguage string
}

// viewportJitter is the maximum offset, in pixels, applied to each
// viewport dimension.
const viewportJitter = 40

// DefaultFingerprints is a pool of common desktop identities.
var DefaultFingerprints = []Fingerprint{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Width:          1920,
		Height:         1080,
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Width:          1440,
		Height:         900,
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0",
		Width:          1536,
		Height:         864,
		AcceptLanguage: "en-GB,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Width:          1366,
		Height:         768,
		AcceptLanguage: "en-US,en;q=0.8",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		Width:          1680,
		Height:         1050,
		AcceptLanguage: "en-US,en;q=0.9",
	},
}

// FingerprintSelector picks a jittered identity from a fixed pool.
type FingerprintSelector struct {
	pool []Fingerprint
	intn func(n int) int
}

// NewFingerprintSelector creates a selector over pool. An empty pool falls
// back to DefaultFingerprints.
func NewFingerprintSelector(pool []Fingerprint) *FingerprintSelector {
	if len(pool) == 0 {
		pool = DefaultFingerprints
	}
	return &FingerprintSelector{pool: pool, intn: rand.IntN}
}

// WithSource returns a copy of the selector drawing from r, for
// reproducible choices.
func (f *FingerprintSelector) WithSource(r *rand.Rand) *FingerprintSelector {
	return &FingerprintSelector{pool: f.pool, intn: r.IntN}
}

// Choose returns a uniformly random pool entry with both viewport
// dimensions shifted by up to viewportJitter pixels.
func (f *FingerprintSelector) Choose() Fingerprint {
	fp := f.pool[f.intn(len(f.pool))]
	fp.Width += f.intn(2*viewportJitter+1) - viewportJitter
	fp.Height += f.intn(2*viewportJitter+1) - viewportJitter
	return fp
}
