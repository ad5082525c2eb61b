/*
Package sequence plays back a series of fields as an animated volume.  Frames are
filled on demand through an importer.Context and kept compressed in a bounded LRU
cache, with frames ahead of the current one preloaded.
*/
package sequence

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/janelia-flyem/vdbtex/dvid"
	"github.com/janelia-flyem/vdbtex/importer"
	"github.com/janelia-flyem/vdbtex/volume"
)

// ErrNoFrames is returned when a frame is requested from an empty sequence.
var ErrNoFrames = errors.New("sequence has no frames")

const (
	DefaultFrameRate    = 24
	MinFrameRate        = 0.01
	MaxFrameRate        = 1000
	DefaultCacheSize    = 8
	MaxCacheSize        = 32
	DefaultPreloadCount = 2
	MaxPreloadCount     = 4
)

// FrameSource supplies the fields of a sequence.  A returned field must stay valid
// until the frame has been filled.
type FrameSource interface {
	NumFrames() int
	Frame(i int) (volume.Field, error)
}

// Fields is a FrameSource over fields already in memory.
type Fields []volume.Field

func (f Fields) NumFrames() int { return len(f) }

func (f Fields) Frame(i int) (volume.Field, error) {
	if i < 0 || i >= len(f) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, len(f))
	}
	return f[i], nil
}

// PlaybackMode sets what happens when playback reaches the end of the sequence.
type PlaybackMode uint8

const (
	// Loop wraps around to the first frame.
	Loop PlaybackMode = iota

	// Once stops at the last frame.
	Once

	// PingPong reverses direction at either end.
	PingPong
)

func (m PlaybackMode) String() string {
	switch m {
	case Loop:
		return "loop"
	case Once:
		return "once"
	case PingPong:
		return "pingpong"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Options configure a Player.  Zero values select defaults and out of range values
// are clamped.
type Options struct {
	FrameRate    float64
	CacheSize    int
	PreloadCount int
	Mode         PlaybackMode

	// Compression of cached textures.  The zero value stores them uncompressed.
	Compression dvid.Compression
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (o *Options) setDefaults() {
	if o.FrameRate == 0 {
		o.FrameRate = DefaultFrameRate
	}
	o.FrameRate = math.Max(MinFrameRate, math.Min(MaxFrameRate, o.FrameRate))
	if o.CacheSize == 0 {
		o.CacheSize = DefaultCacheSize
	}
	o.CacheSize = clampInt(o.CacheSize, 1, MaxCacheSize)
	if o.PreloadCount == 0 {
		o.PreloadCount = DefaultPreloadCount
	}
	o.PreloadCount = clampInt(o.PreloadCount, 1, MaxPreloadCount)
}

// Frame is a decoded texture of the sequence.
type Frame struct {
	Index   int
	Texture volume.TextureData
	Summary volume.Summary
}

// cachedFrame is a filled texture held in serialized form.
type cachedFrame struct {
	format  volume.Format
	data    []byte
	summary volume.Summary
}

// Player steps through a FrameSource at a fixed frame rate.  It is safe for
// concurrent use.
type Player struct {
	mu sync.Mutex

	src  FrameSource
	ctx  *importer.Context
	opts Options

	cache *lru.Cache

	current   int
	elapsed   time.Duration
	playing   bool
	direction int
}

// NewPlayer returns a stopped Player positioned at frame 0.  If ctx is nil, a
// Context with the default configuration is used.
func NewPlayer(src FrameSource, ctx *importer.Context, opts Options) (*Player, error) {
	if src == nil {
		return nil, fmt.Errorf("cannot create player without a frame source")
	}
	if ctx == nil {
		var err error
		if ctx, err = importer.NewContext(nil); err != nil {
			return nil, err
		}
	}
	opts.setDefaults()
	p := &Player{
		src:       src,
		ctx:       ctx,
		opts:      opts,
		cache:     lru.New(opts.CacheSize),
		direction: 1,
	}
	p.cache.OnEvicted = func(key lru.Key, value interface{}) {
		dvid.Debugf("Evicted frame %v from sequence cache\n", key)
	}
	return p, nil
}

// Options returns the effective options after defaults and clamping.
func (p *Player) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

func (p *Player) NumFrames() int {
	return p.src.NumFrames()
}

func (p *Player) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Stop pauses playback and rewinds to frame 0 moving forward.
func (p *Player) Stop() {
	p.mu.Lock()
	p.playing = false
	p.elapsed = 0
	p.current = 0
	p.direction = 1
	p.mu.Unlock()
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) CurrentFrame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SetFrame moves to a frame, clamped to the sequence, loading it and preloading the
// frames that follow.  Only a failure to load the requested frame is returned.
func (p *Player) SetFrame(frame int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setFrame(frame)
}

func (p *Player) setFrame(frame int) error {
	n := p.src.NumFrames()
	if n == 0 {
		return ErrNoFrames
	}
	p.current = clampInt(frame, 0, n-1)
	if _, err := p.cached(p.current); err != nil {
		return err
	}
	p.preload()
	return nil
}

// NormalizedTime returns the position in the sequence as a fraction in [0,1].
func (p *Player) NormalizedTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.src.NumFrames()
	if n <= 1 {
		return 0
	}
	return float64(p.current) / float64(n-1)
}

// SetNormalizedTime moves to the frame nearest the given fraction of the sequence.
func (p *Player) SetNormalizedTime(t float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.src.NumFrames()
	if n == 0 {
		return ErrNoFrames
	}
	t = math.Max(0, math.Min(1, t))
	return p.setFrame(int(math.Round(t * float64(n-1))))
}

// Advance moves playback forward by dt, stepping one frame per elapsed frame
// duration.  Whole playback cycles are skipped, so a long dt costs at most one
// cycle of steps.  It returns whether the current frame changed.
func (p *Player) Advance(dt time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.src.NumFrames()
	if !p.playing || n == 0 {
		return false, nil
	}
	frameDuration := max(time.Duration(1), time.Duration(float64(time.Second)/p.opts.FrameRate))
	p.elapsed += dt
	steps := int64(p.elapsed / frameDuration)
	p.elapsed %= frameDuration
	switch p.opts.Mode {
	case Loop:
		steps %= int64(n)
	case PingPong:
		if n > 1 {
			steps %= int64(2 * (n - 1))
		} else {
			steps = 0
		}
	default:
		steps = min(steps, int64(n))
	}
	start := p.current
	for ; p.playing && steps > 0; steps-- {
		p.step(n)
	}
	if p.current == start {
		return false, nil
	}
	return true, p.setFrame(p.current)
}

func (p *Player) step(n int) {
	next := p.current + p.direction
	switch p.opts.Mode {
	case Loop:
		next = ((next % n) + n) % n
	case Once:
		if next >= n {
			p.playing = false
			return
		}
	case PingPong:
		if next >= n || next < 0 {
			p.direction = -p.direction
			next = p.current + p.direction
		}
	}
	p.current = clampInt(next, 0, n-1)
}

// Texture returns the decoded texture of the current frame.
func (p *Player) Texture() (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src.NumFrames() == 0 {
		return nil, ErrNoFrames
	}
	cf, err := p.cached(p.current)
	if err != nil {
		return nil, err
	}
	raw, _, err := dvid.DeserializeData(cf.data, true)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %v", p.current, err)
	}
	tex, err := volume.TextureFromBytes(cf.format, raw)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %v", p.current, err)
	}
	return &Frame{Index: p.current, Texture: tex, Summary: cf.summary}, nil
}

// IsCached returns whether a frame is held in the cache.
func (p *Player) IsCached(frame int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, found := p.cache.Get(frame)
	return found
}

// ClearCache drops every cached frame, e.g. after the Context settings change.
func (p *Player) ClearCache() {
	p.mu.Lock()
	p.cache.Clear()
	p.mu.Unlock()
}

// cached returns a frame from the cache, loading it on a miss.
func (p *Player) cached(frame int) (*cachedFrame, error) {
	if v, found := p.cache.Get(frame); found {
		return v.(*cachedFrame), nil
	}
	cf, err := p.load(frame)
	if err != nil {
		return nil, err
	}
	p.cache.Add(frame, cf)
	return cf, nil
}

// preload loads the frames that playback will reach next.  Failures are logged
// since the frame will be retried when it becomes current.
func (p *Player) preload() {
	n := p.src.NumFrames()
	for i := 1; i <= p.opts.PreloadCount; i++ {
		ahead := p.current + i*p.direction
		if p.opts.Mode == Loop {
			ahead = ((ahead % n) + n) % n
		}
		if ahead < 0 || ahead >= n || ahead == p.current {
			continue
		}
		if _, found := p.cache.Get(ahead); found {
			continue
		}
		if _, err := p.cached(ahead); err != nil {
			dvid.Warningf("Could not preload frame %d: %v\n", ahead, err)
		}
	}
}

func (p *Player) load(frame int) (*cachedFrame, error) {
	timedLog := dvid.NewTimeLog()
	field, err := p.src.Frame(frame)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	vol, err := p.ctx.Load(field)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	tex, summary, err := vol.Fill()
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	data, err := dvid.SerializeData(tex.Bytes(), p.opts.Compression, dvid.CRC32)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %v", frame, err)
	}
	timedLog.Debugf("Loaded frame %d: %s, cached in %d bytes", frame, summary, len(data))
	return &cachedFrame{format: tex.Format(), data: data, summary: *summary}, nil
}
