// Package tracker defines trackers, which record scalar data generated
// during an experiment and save it after the experiment has finished
package tracker

// Tracker records scalar values, such as episodic returns or
// evaluation scores, keyed by a tag and the timestep at which they
// were generated
type Tracker interface {
	Record(tag string, step int, value float64)
	Save() error
}

// Tags of the scalars recorded during an experiment
const (
	TrainReturn    = "train/return"
	TrainEpisode   = "train/episode_length"
	EvalReturn     = "eval/average_return"
	EvalBestReturn = "eval/best_return"
)

// Discard is a Tracker that records nothing
var Discard Tracker = discard{}

type discard struct{}

func (discard) Record(string, int, float64) {}
func (discard) Save() error                 { return nil }
