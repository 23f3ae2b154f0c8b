package envconfig

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCreatePendulum(t *testing.T) {
	e, err := Create(string(Pendulum), 5, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.MaxEpisodeSteps() != 200 {
		t.Errorf("create: default step limit \n\twant(200) \n\thave(%v)",
			e.MaxEpisodeSteps())
	}

	e, err = Create(string(Pendulum), 5, 25)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.MaxEpisodeSteps() != 25 {
		t.Errorf("create: configured step limit \n\twant(25) \n\thave(%v)",
			e.MaxEpisodeSteps())
	}
}

func TestFactoryFreshInstances(t *testing.T) {
	factory, err := NewFactory(string(Pendulum), 0)
	if err != nil {
		t.Fatalf("newFactory: %v", err)
	}

	e1, err := factory(11)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	e2, err := factory(11)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if e1 == e2 {
		t.Fatal("factory: expected distinct environment instances")
	}

	s1, _ := e1.Reset()
	s2, _ := e2.Reset()
	if !mat.Equal(s1.Observation, s2.Observation) {
		t.Error("factory: equally seeded instances started differently")
	}
}
