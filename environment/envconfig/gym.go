//go:build gogym

package envconfig

import (
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/environment/gym"
)

func init() {
	fallback = func(name string, seed uint64,
		maxEpisodeSteps int) (env.Environment, error) {
		e, err := gym.New(name, seed, maxEpisodeSteps)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
