// Package output formats extracted sentence pairs and writes them to
// output sinks and id-logs.
package output

import (
	"strings"

	"github.com/FocuswithJustin/opusread/core/alignment"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/sentences"
)

// Mode selects the output serialization.
type Mode int

const (
	// ModeNormal is plain bilingual text with document headers.
	ModeNormal Mode = iota
	// ModeMoses is one pair per line, or one side per file.
	ModeMoses
	// ModeTMX is a TMX 1.4 translation memory.
	ModeTMX
	// ModeLinks re-emits the surviving links as a cesAlign document.
	ModeLinks
)

var modeNames = []string{"normal", "moses", "tmx", "links"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode maps a mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, name) {
			return Mode(i), nil
		}
	}
	return 0, errors.NewValidation("write_mode", name, "must be one of "+strings.Join(modeNames, ", "))
}

// NeedsSentences reports whether the mode prints sentence text.
func (m Mode) NeedsSentences() bool {
	return m != ModeLinks
}

// MaxTargets returns the number of output files the mode can write to.
func (m Mode) MaxTargets() int {
	if m == ModeMoses {
		return 2
	}
	return 1
}

// Pair is one emitted sentence pair.
type Pair struct {
	SourceDoc string
	TargetDoc string
	Link      alignment.Link
	Source    []sentences.Sentence
	Target    []sentences.Sentence
}

// Swapped returns the pair with sides exchanged: documents, sentences and
// the link's id lists and xtargets.
func (p Pair) Swapped() Pair {
	return Pair{
		SourceDoc: p.TargetDoc,
		TargetDoc: p.SourceDoc,
		Link:      p.Link.Swapped(),
		Source:    p.Target,
		Target:    p.Source,
	}
}
