package langid

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/pemistahl/lingua-go"
)

type whatlangClassifier struct{}

// NewWhatlang returns a trigram-based classifier backed by whatlanggo.
func NewWhatlang() Classifier {
	return whatlangClassifier{}
}

func (whatlangClassifier) Name() string {
	return "whatlanggo"
}

func (whatlangClassifier) Classify(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Unknown, nil
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown, nil
	}
	return Result{Code: code, Confidence: info.Confidence}, nil
}

type linguaClassifier struct {
	detector lingua.LanguageDetector
}

// NewLingua returns a classifier backed by lingua-go with every bundled
// language model.
func NewLingua() (Classifier, error) {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()
	return &linguaClassifier{detector: detector}, nil
}

func (*linguaClassifier) Name() string {
	return "lingua"
}

func (l *linguaClassifier) Classify(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Unknown, nil
	}
	values := l.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 || values[0].Value() == 0 {
		return Unknown, nil
	}
	top := values[0]
	return Result{
		Code:       strings.ToLower(top.Language().IsoCode639_1().String()),
		Confidence: top.Value(),
	}, nil
}
