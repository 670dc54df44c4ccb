// Package langid provides language identification as an injectable
// capability.
//
// Two classifier slots exist. Their results are stored on sentence elements
// as cld2/cld2conf (slot 0) and langid/langidconf (slot 1), the attribute
// names used by published corpora, whichever backend fills them.
package langid

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/opusread/core/cache"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/internal/logging"
)

// Result is a detected language code and its confidence in [0, 1].
type Result struct {
	Code       string
	Confidence float64
}

// Unknown is reported when classification fails or finds nothing.
var Unknown = Result{Code: "un", Confidence: 0}

// Classifier estimates the language of a text.
type Classifier interface {
	Name() string
	Classify(text string) (Result, error)
}

// Classifiers holds the classifier of each slot; nil slots are unused.
type Classifiers [2]Classifier

// Slot attribute names.
var SlotAttrs = [2]struct{ Code, Confidence string }{
	{Code: "cld2", Confidence: "cld2conf"},
	{Code: "langid", Confidence: "langidconf"},
}

// Classify runs c on text. A failing backend degrades to Unknown; the
// failure is logged, never returned.
func Classify(c Classifier, text string) Result {
	r, err := c.Classify(text)
	if err != nil {
		logging.Warn("language identification failed", "backend", c.Name(), "error", err)
		return Unknown
	}
	return r
}

type lazy struct {
	name string
	init func() (Classifier, error)

	once sync.Once
	c    Classifier
	err  error
}

// Lazy returns a classifier that constructs its backend on first use and
// reuses it afterwards. Construction failures surface as ClassificationError
// from every Classify call.
func Lazy(name string, init func() (Classifier, error)) Classifier {
	return &lazy{name: name, init: init}
}

func (l *lazy) Name() string {
	return l.name
}

func (l *lazy) Classify(text string) (Result, error) {
	l.once.Do(func() {
		l.c, l.err = l.init()
	})
	if l.err != nil {
		return Unknown, &errors.ClassificationError{Backend: l.name, Err: l.err}
	}
	return l.c.Classify(text)
}

// CacheSize is the number of distinct texts a parsed classifier remembers.
const CacheSize = 4096

type cached struct {
	Classifier
	results *cache.LRU[string, Result]
}

// Cached memoizes the successful results of c for the size most recently
// classified texts. Short sentences repeat often in subtitle corpora.
func Cached(c Classifier, size int) Classifier {
	return &cached{Classifier: c, results: cache.NewLRU[string, Result](size)}
}

func (c *cached) Classify(text string) (Result, error) {
	if r, ok := c.results.Get(text); ok {
		return r, nil
	}
	r, err := c.Classifier.Classify(text)
	if err != nil {
		return r, err
	}
	c.results.Put(text, r)
	return r, nil
}

// Process-wide backends. Models are loaded on first use only.
var backends = map[string]Classifier{
	"whatlanggo": Lazy("whatlanggo", func() (Classifier, error) { return NewWhatlang(), nil }),
	"lingua":     Lazy("lingua", func() (Classifier, error) { return NewLingua() }),
}

// Backends returns the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backend returns the shared classifier registered as name.
func Backend(name string) (Classifier, error) {
	c, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, errors.NewValidation("classifier", name,
			fmt.Sprintf("unknown backend (available: %s)", strings.Join(Backends(), ", ")))
	}
	return c, nil
}

// ParseClassifiers resolves up to two comma-separated backend names into
// slots, each with its own result cache. An empty spec yields no
// classifiers.
func ParseClassifiers(spec string) (Classifiers, error) {
	var out Classifiers
	if strings.TrimSpace(spec) == "" {
		return out, nil
	}
	names := strings.Split(spec, ",")
	if len(names) > len(out) {
		return out, errors.NewValidation("classifier", spec, "at most two backends")
	}
	for i, name := range names {
		c, err := Backend(strings.TrimSpace(name))
		if err != nil {
			return out, err
		}
		out[i] = Cached(c, CacheSize)
	}
	return out, nil
}
