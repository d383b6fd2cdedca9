package agent

// Strength is the three-way evidence policy tier derived from the score and
// the shape of the gathered context. It is recomputed on every context
// mutation and never stored.
type Strength string

const (
	EvidenceStrong Strength = "strong" // Answer normally
	EvidenceWeak   Strength = "weak"   // Answer, but hedge
	EvidenceNone   Strength = "none"   // Abstain
)

// Scoring weights and bands. The bands are calibrated qualitatively: empty
// context floors at NONE, low-confidence citations cap at WEAK, ample
// context with at least one confident citation reaches STRONG.
const (
	contextWeight   = 0.6
	citationWeight  = 0.4
	contextCapChars = 1000
	noneFloor       = 0.10
	weakTopScore    = 0.60
)

// Score maps accumulated context and citations to a confidence value in
// [0,1]. The function is pure and monotonic in both the amount of context
// and the citation confidence.
func Score(contextGathered []string, sources []Source) float64 {
	if len(contextGathered) == 0 {
		return 0
	}

	chars := 0
	for _, c := range contextGathered {
		chars += len(c)
	}
	contextPart := float64(chars) / contextCapChars
	if contextPart > 1 {
		contextPart = 1
	}

	citationPart := 0.0
	if len(sources) > 0 {
		sum := 0.0
		for _, s := range sources {
			sum += clamp01(s.Score)
		}
		citationPart = sum / float64(len(sources))
	}

	return contextWeight*contextPart + citationWeight*citationPart
}

// Classify derives the policy tier for a given score and context shape.
func Classify(score float64, contextGathered []string, sources []Source) Strength {
	if len(contextGathered) == 0 || score < noneFloor {
		return EvidenceNone
	}
	if topSourceScore(sources) < weakTopScore {
		return EvidenceWeak
	}
	return EvidenceStrong
}

func topSourceScore(sources []Source) float64 {
	top := 0.0
	for _, s := range sources {
		if s.Score > top {
			top = s.Score
		}
	}
	return top
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
