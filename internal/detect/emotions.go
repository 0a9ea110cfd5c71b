package detect

// Emotion vocabulary, matching the lowercase names emitted by the upstream
// voice model. Group membership drives the cross-signal contradiction checks.

var (
	hostilityEmotions   = []string{"anger", "rage", "contempt", "disgust"}
	hostilityActive     = []string{"anger", "rage"}
	fearEmotions        = []string{"fear", "anxiety", "distress", "horror"}
	sadnessEmotions     = []string{"sadness", "disappointment", "grief", "despair"}
	deepSadnessEmotions = []string{"grief", "despair"}

	boredomEmotions    = []string{"boredom", "tiredness"}
	confusionEmotions  = []string{"confusion", "doubt"}
	serenityEmotions   = []string{"calmness", "contentment", "relief"}
	connectionEmotions = []string{"love", "sympathy", "gratitude", "adoration"}

	engagementModerate = []string{"interest", "joy", "determination", "enthusiasm", "excitement"}
	engagementIntense  = []string{"ecstasy", "triumph", "awe", "admiration"}
	engagementPlayful  = []string{"amusement", "entrancement"}
)

// maxOf returns the highest score among the named emotions and the name that
// carries it. Missing names score 0.
func maxOf(emotions map[string]float64, names []string) (string, float64) {
	var bestName string
	best := 0.0
	for _, n := range names {
		if v, ok := emotions[n]; ok && v > best {
			best = v
			bestName = n
		}
	}
	return bestName, best
}

// anyAbove reports whether any named emotion exceeds the threshold.
func anyAbove(emotions map[string]float64, names []string, threshold float64) bool {
	for _, n := range names {
		if emotions[n] > threshold {
			return true
		}
	}
	return false
}

// claimedEmotions holds every name a specific primary detector fires on. The
// mental-state catch-all skips them so one sustained emotion can never surface
// twice under two alert types.
var claimedEmotions = func() map[string]struct{} {
	claimed := make(map[string]struct{})
	for _, group := range [][]string{
		hostilityEmotions, sadnessEmotions, boredomEmotions, confusionEmotions,
		serenityEmotions, connectionEmotions,
		engagementModerate, engagementIntense, engagementPlayful,
		{"frustration"},
	} {
		for _, n := range group {
			claimed[n] = struct{}{}
		}
	}
	return claimed
}()

// dominantUnclaimedEmotion returns the highest-scoring emotion that no
// specific detector owns.
func dominantUnclaimedEmotion(emotions map[string]float64) (string, float64) {
	var bestName string
	best := 0.0
	for n, v := range emotions {
		if _, ok := claimedEmotions[n]; ok {
			continue
		}
		if v > best {
			best = v
			bestName = n
		}
	}
	return bestName, best
}
