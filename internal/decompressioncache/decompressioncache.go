// Package decompressioncache turns a resumable decompressor into an [io.ReaderAt].
//
// A decompressor is described as a chain of [Stepper] calls,
// each of which yields the next run of output and a way to resume after it.
// Output runs are kept in a shared [bigcache.BigCache],
// and the resumption points in a size-bounded [tinylfu.T],
// so a read at any offset replays from the nearest surviving checkpoint.
package decompressioncache

import (
	"context"
	"fmt"
	"hash/maphash"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/dgryski/go-tinylfu"
)

// A Stepper produces one run of output, and another Stepper to produce the following run.
// An error accompanying the run (io.EOF included) ends the chain after it.
// Calling the same Stepper twice must produce the same output.
type Stepper func() (Stepper, []byte, error)

func New(stepper Stepper, size int64, debugName string) *ReaderAt {
	return &ReaderAt{
		uniq:      atomic.AddUint64(&monotonic, 1),
		debugName: debugName,
		first:     stepper,
		offsets:   []int64{0},
		last:      -1,
		size:      size,
	}
}

// A ReaderAt is safe for concurrent use by multiple goroutines.
type ReaderAt struct {
	uniq      uint64
	debugName string
	first     Stepper
	size      int64

	mu      sync.Mutex
	offsets []int64 // where each step starts, as far as known
	last    int     // the step that yields lastErr instead of data, once known
	lastErr error
}

type ckey struct {
	uniq uint64
	step int
}

var monotonic uint64

func (r *ReaderAt) Size() int64 {
	return r.size
}

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("decompressioncache %s: negative offset %d", r.debugName, off)
	} else if off >= r.size {
		return 0, io.EOF
	}
	short := off+int64(len(p)) >= r.size
	if short {
		p = p[:r.size-off]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// start with the highest checkpoint that starts <= the request
	i := sort.Search(len(r.offsets), func(i int) bool {
		return r.offsets[i] > off
	}) - 1

	n := 0
	for {
		blob, err := r.blob(i)
		if len(blob) > 0 {
			destcut, srccut, ok := overlap(off, len(p), r.offsets[i], len(blob))
			if ok {
				n = destcut + copy(p[destcut:], blob[srccut:])
			}
		}
		if err != nil {
			return n, err
		}
		if n == len(p) && !short {
			return n, nil
		}
		i++
	}
}

// blob returns the output of step i, replaying from an earlier checkpoint if it has been evicted.
// The error is only non-nil for the final step.
func (r *ReaderAt) blob(i int) ([]byte, error) {
	if i == r.last {
		return nil, r.lastErr
	}
	if got, err := shared().Get(r.key(i)); err == nil {
		return got, nil
	}

	j, s := i, Stepper(nil)
	for ; j > 0; j-- {
		if s = getStepper(ckey{r.uniq, j}); s != nil {
			break
		}
	}
	if j == 0 {
		s = r.first
	}

	for ; ; j++ {
		next, blob, err := s()
		if len(blob) == 0 && err != nil {
			r.last, r.lastErr = j, err
			return nil, err
		}
		if j+1 == len(r.offsets) {
			r.offsets = append(r.offsets, r.offsets[j]+int64(len(blob)))
		}
		shared().Set(r.key(j), blob)
		if err != nil {
			r.last, r.lastErr = j+1, err
		} else {
			addStepper(ckey{r.uniq, j + 1}, next)
		}

		if j == i {
			return blob, nil
		}
		s = next
	}
}

func (r *ReaderAt) key(i int) string {
	return fmt.Sprintf("%s_%d_%d", r.debugName, r.uniq, i)
}

// Budget is the size of the shared output cache in megabytes.
// Changing it has no effect once the first ReaderAt has been read.
var Budget = 256

// nSnapshots bounds the number of resumption points kept across all ReaderAts.
const nSnapshots = 256

var (
	cache     *bigcache.BigCache
	cacheOnce sync.Once

	steppers   = tinylfu.New[ckey, Stepper](nSnapshots, nSnapshots*10, hasher)
	steppersMu sync.Mutex
	seed       = maphash.MakeSeed()
)

func hasher(k ckey) uint64 {
	return maphash.Comparable(seed, k)
}

func getStepper(k ckey) Stepper {
	steppersMu.Lock()
	defer steppersMu.Unlock()
	s, _ := steppers.Get(k)
	return s
}

func addStepper(k ckey, s Stepper) {
	if s == nil {
		return
	}
	steppersMu.Lock()
	defer steppersMu.Unlock()
	steppers.Add(k, s)
}

// shared opens the output cache on first use, once Budget has been settled.
func shared() *bigcache.BigCache {
	cacheOnce.Do(func() {
		c, err := bigcache.New(context.Background(), bigcache.Config{
			Shards:             64,
			LifeWindow:         10 * time.Minute,
			MaxEntriesInWindow: 640,
			MaxEntrySize:       4096,
			HardMaxCacheSize:   Budget, // megabytes
		})
		if err != nil {
			panic(err)
		}
		cache = c
	})
	return cache
}

func overlap(aoffset int64, alen int, boffset int64, blen int) (ainner, binner int, ok bool) {
	if aoffset >= boffset+int64(blen) || boffset >= aoffset+int64(alen) {
		return 0, 0, false
	}

	if aoffset > boffset {
		binner = int(aoffset - boffset)
	} else {
		ainner = int(boffset - aoffset)
	}
	return ainner, binner, true
}
