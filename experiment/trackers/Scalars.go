// Package trackers implements Trackers, which track and save data in
// an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Scalar is a single recorded value
type Scalar struct {
	Tag   string
	Step  int
	Value float64
}

// Scalars tracks tagged scalar values in an experiment. The values are
// saved with gob to a single file, and can be rendered as an HTML page
// of line charts, one per tag.
type Scalars struct {
	filename string
	data     []Scalar
}

// NewScalars returns a new Scalars tracker which will save its data at
// the specified location filename
func NewScalars(filename string) *Scalars {
	return &Scalars{filename: filename}
}

// Record records a value
func (s *Scalars) Record(tag string, step int, value float64) {
	s.data = append(s.data, Scalar{Tag: tag, Step: step, Value: value})
}

// Tags returns the sorted tags of all recorded values
func (s *Scalars) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, d := range s.data {
		if !seen[d.Tag] {
			seen[d.Tag] = true
			tags = append(tags, d.Tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// Get returns the values recorded with tag in the order they were
// recorded
func (s *Scalars) Get(tag string) []Scalar {
	var out []Scalar
	for _, d := range s.data {
		if d.Tag == tag {
			out = append(out, d)
		}
	}
	return out
}

// Save saves the data tracked by the Scalars Tracker to disk
func (s *Scalars) Save() error {
	file, err := os.Create(s.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}

	if err := gob.NewEncoder(file).Encode(s.data); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode scalars: %v", err)
	}
	return file.Close()
}

// LoadScalars loads and returns the data saved by a Scalars Tracker
func LoadScalars(filename string) (*Scalars, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadScalars: could not open data file: %w",
			err)
	}
	defer file.Close()

	s := NewScalars(filename)
	if err := gob.NewDecoder(file).Decode(&s.data); err != nil {
		return nil, fmt.Errorf("loadScalars: could not decode data: %v", err)
	}
	return s, nil
}

// Render writes an HTML page with one line chart per tag to w
func (s *Scalars) Render(w io.Writer) error {
	page := components.NewPage()

	for _, tag := range s.Tags() {
		values := s.Get(tag)

		steps := make([]string, len(values))
		items := make([]opts.LineData, len(values))
		for i, v := range values {
			steps[i] = fmt.Sprintf("%d", v.Step)
			items[i] = opts.LineData{Value: v.Value}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: tag}),
			charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		)
		line.SetXAxis(steps).AddSeries(tag, items)
		page.AddCharts(line)
	}

	return page.Render(w)
}

// RenderFile renders the HTML page of line charts to a file
func (s *Scalars) RenderFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("renderFile: %v", err)
	}
	if err := s.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("renderFile: %v", err)
	}
	return f.Close()
}
