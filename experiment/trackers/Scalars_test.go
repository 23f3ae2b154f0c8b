package trackers

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestScalarsSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scalars.bin")
	s := NewScalars(path)
	s.Record("eval", 0, -100)
	s.Record("train", 7, -50)
	s.Record("eval", 10, -80)

	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadScalars(path)
	if err != nil {
		t.Fatalf("loadScalars: %v", err)
	}

	tags := loaded.Tags()
	if len(tags) != 2 || tags[0] != "eval" || tags[1] != "train" {
		t.Errorf("tags: \n\twant([eval train]) \n\thave(%v)", tags)
	}

	eval := loaded.Get("eval")
	want := []Scalar{{"eval", 0, -100}, {"eval", 10, -80}}
	if len(eval) != len(want) {
		t.Fatalf("get: \n\twant(%v) \n\thave(%v)", want, eval)
	}
	for i := range want {
		if eval[i] != want[i] {
			t.Errorf("get: \n\twant(%v) \n\thave(%v)", want[i], eval[i])
		}
	}
}

func TestScalarsRender(t *testing.T) {
	s := NewScalars("")
	s.Record("eval/average_return", 0, -1200)
	s.Record("eval/average_return", 10, -900)

	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "eval/average_return") {
		t.Error("render: chart does not mention its tag")
	}
}

func TestLoadScalarsMissing(t *testing.T) {
	if _, err := LoadScalars(filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("loadScalars: expected error for missing file")
	}
}
