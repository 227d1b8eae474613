package footage

import (
	"math/rand"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// filterCandidates keeps candidates at or above the resolution floor with an accepted quality tag
func filterCandidates(cands []Candidate, minWidth int, accepted map[types.QualityTag]bool) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if c.URI == "" || c.Width < minWidth {
			continue
		}
		if len(accepted) > 0 && !accepted[c.Quality] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// pick applies the process-wide selection policy. "first" keeps the catalog's
// own ranking; "random" spreads runs across equally acceptable clips.
func pick(cands []Candidate, policy string, rng *rand.Rand) Candidate {
	if policy == config.SelectRandom && len(cands) > 1 {
		return cands[rng.Intn(len(cands))]
	}
	return cands[0]
}

func acceptedSet(tags []string) map[types.QualityTag]bool {
	set := make(map[types.QualityTag]bool, len(tags))
	for _, t := range tags {
		set[types.QualityTag(t)] = true
	}
	return set
}
