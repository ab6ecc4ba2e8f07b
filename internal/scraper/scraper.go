// Package scraper watches the AWS Lambda runtimes documentation for changes
// to the supported and deprecated runtime tables.
package scraper

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// RuntimesURL is the documentation page listing Lambda runtimes.
	RuntimesURL = "https://docs.aws.amazon.com/lambda/latest/dg/lambda-runtimes.html"
	// URLEnv names the environment variable that overrides RuntimesURL.
	URLEnv = "RUNTIMES_URL"

	userAgent      = "Mozilla/5.0 (Windows NT 6.3; Win64; x64; rv:109.0) Gecko/20100101 Firefox/113.0"
	acceptLanguage = "en-US,en;q=0.5"

	// NoChanges is the report message when every table matches its baseline.
	NoChanges = "NO CHANGES"
	// ChangesDetected is the report message when any table differs.
	ChangesDetected = "CHANGES DETECTED"
)

// TableRef names a table of the page by position and its baseline file.
type TableRef struct {
	File  string
	Index int
}

// Tables are the tables compared on every run.
var Tables = []TableRef{
	{File: "supported_runtimes.csv", Index: 0},
	{File: "deprecated_runtimes.csv", Index: 2},
}

// Change is a table that no longer matches its baseline.
type Change struct {
	File string
	Diff string
	// Latest is the table as currently published.
	Latest Table
}

// Report is the result of one comparison run.
type Report struct {
	Changes []Change
}

// Changed reports whether any table differs from its baseline.
func (r Report) Changed() bool { return len(r.Changes) > 0 }

// Message is the one-line summary of the report.
func (r Report) Message() string {
	if r.Changed() {
		return ChangesDetected
	}
	return NoChanges
}

// Scraper compares the published runtime tables with stored baselines.
type Scraper struct {
	Client *http.Client
	URL    string
	// Baselines holds one CSV file per entry of Tables.
	Baselines fs.FS
	Logger    *zap.Logger
}

// New returns a scraper for RuntimesURL.
func New(baselines fs.FS, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		Client:    &http.Client{Timeout: 30 * time.Second},
		URL:       RuntimesURL,
		Baselines: baselines,
		Logger:    logger,
	}
}

// Fetch downloads and parses the runtimes page.
func (s *Scraper) Fetch(ctx context.Context) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: HTTP %d", s.URL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.URL, err)
	}
	return doc, nil
}

// Baseline reads a stored table.
func (s *Scraper) Baseline(file string) (Table, error) {
	f, err := s.Baselines.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening baseline: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading baseline %s: %w", file, err)
	}
	return t, nil
}

// Check fetches the page once and compares every table of Tables with its
// baseline, logging a diff for each change.
func (s *Scraper) Check(ctx context.Context) (Report, error) {
	doc, err := s.Fetch(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, ref := range Tables {
		latest, err := ExtractTable(doc, ref.Index)
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", ref.File, err)
		}
		current, err := s.Baseline(ref.File)
		if err != nil {
			return Report{}, err
		}

		if current.Equal(latest) {
			s.Logger.Debug("table unchanged", zap.String("table", ref.File), zap.Int("rows", len(latest)))
			continue
		}

		diff := cmp.Diff(current, latest)
		s.Logger.Warn("changes detected",
			zap.String("table", ref.File),
			zap.String("diff", diff),
		)
		report.Changes = append(report.Changes, Change{File: ref.File, Diff: diff, Latest: latest})
	}
	return report, nil
}
