package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout identifies an installed corpus release.
type Layout struct {
	Root        string
	DownloadDir string
	Corpus      string
	Release     string
	Preprocess  string
	Source      string
	Target      string
}

// Paths are the files of one language pair.
type Paths struct {
	Alignment     string
	SourceArchive string
	TargetArchive string
}

// Locate returns the conventional paths of a language pair. Alignment
// files are named after the pair in alphabetical order. An archive present
// in the download directory wins over the one under the root directory.
// Nothing is downloaded.
func Locate(l Layout) Paths {
	pair := []string{l.Source, l.Target}
	sort.Strings(pair)
	return Paths{
		Alignment:     filepath.Join(l.Root, l.Corpus, l.Release, "xml", strings.Join(pair, "-")+".xml.gz"),
		SourceArchive: findArchive(l, l.Source),
		TargetArchive: findArchive(l, l.Target),
	}
}

func findArchive(l Layout, lang string) string {
	downloaded := filepath.Join(l.DownloadDir,
		strings.Join([]string{l.Corpus, l.Release, l.Preprocess, lang}, "_")+".zip")
	if info, err := os.Stat(downloaded); err == nil && !info.IsDir() {
		return downloaded
	}
	return filepath.Join(l.Root, l.Corpus, l.Release, l.Preprocess, lang+".zip")
}
