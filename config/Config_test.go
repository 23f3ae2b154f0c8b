package config

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"env_name": "HalfCheetah-v2",
		"seed": 4,
		"max_timesteps": 1000,
		"eval_freq": 100,
		"norm_state": true,
		"agent": {"Hidden": [32]}
	}`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if c.EnvName != "HalfCheetah-v2" || c.Seed != 4 || c.MaxTimesteps != 1000 ||
		c.EvalFreq != 100 || !c.NormState {
		t.Errorf("load: values not read \n\thave(%+v)", c)
	}

	// Missing values keep their defaults
	d := Default()
	if c.EvalEpisodes != d.EvalEpisodes || c.AlgoName != d.AlgoName ||
		c.StartTimesteps != d.StartTimesteps || c.DataDir != d.DataDir {
		t.Errorf("load: defaults not kept \n\thave(%+v)", c)
	}

	var agentConfig map[string][]int
	if err := json.Unmarshal(c.Agent, &agentConfig); err != nil {
		t.Fatalf("unmarshal agent: %v", err)
	}
	if agentConfig["Hidden"][0] != 32 {
		t.Errorf("load: agent config \n\twant(32) \n\thave(%v)", agentConfig)
	}

	if name := c.ExperimentName(); name != "GaussianAC_HalfCheetah-v2_4" {
		t.Errorf("experimentName: \n\twant(GaussianAC_HalfCheetah-v2_4) "+
			"\n\thave(%v)", name)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("load: expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `{"seed": "four"}`)); err == nil {
		t.Error("load: expected error for invalid value")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"env name":      func(c *Config) { c.EnvName = "" },
		"algo name":     func(c *Config) { c.AlgoName = "" },
		"eval freq":     func(c *Config) { c.EvalFreq = 0 },
		"max timesteps": func(c *Config) { c.MaxTimesteps = -1 },
		"start":         func(c *Config) { c.StartTimesteps = -1 },
		"episodes":      func(c *Config) { c.EvalEpisodes = 0 },
		"dataset":       func(c *Config) { c.DatasetSteps = -5 },
		"result dir":    func(c *Config) { c.ResultDir = "" },
		"device":        func(c *Config) { c.Device = "" },
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("validate: default config is invalid: %v", err)
	}
	for name, modify := range tests {
		c := Default()
		modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("validate: expected error for invalid %v", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvResultDir, "/tmp/results")
	t.Setenv(EnvDevice, "cuda")
	t.Setenv(EnvSeed, "17")

	c := Default()
	if err := c.ApplyEnv(); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if c.ResultDir != "/tmp/results" || c.Device != "cuda" || c.Seed != 17 {
		t.Errorf("applyEnv: \n\thave(%+v)", c)
	}
	if c.DataDir != Default().DataDir {
		t.Errorf("applyEnv: data dir changed to %v", c.DataDir)
	}

	var buf bytes.Buffer
	c.ResolveDevice(log.New(&buf, "", 0))
	if c.Device != CPU {
		t.Errorf("resolveDevice: \n\twant(%v) \n\thave(%v)", CPU, c.Device)
	}
	if !strings.Contains(buf.String(), "cuda") {
		t.Errorf("resolveDevice: fallback not logged")
	}

	t.Setenv(EnvSeed, "-1")
	if err := c.ApplyEnv(); err == nil {
		t.Error("applyEnv: expected error for invalid seed")
	}
}

func TestRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	c := Default()
	c.Agent = json.RawMessage(`{"Discount":0.9}`)
	if err := c.Record(path); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.RunID == "" {
		t.Fatal("record: run id not generated")
	}

	recorded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if recorded.RunID != c.RunID || recorded.Seed != c.Seed ||
		recorded.EnvName != c.EnvName {
		t.Errorf("record: \n\twant(%+v) \n\thave(%+v)", c, recorded)
	}

	// Recording again keeps the run id
	id := c.RunID
	if err := c.Record(path); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.RunID != id {
		t.Errorf("record: run id changed from %v to %v", id, c.RunID)
	}
}
