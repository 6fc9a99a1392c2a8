package corpus

import (
	"math"
	"math/rand"
)

// Split shuffles examples with a seeded source and divides them into a train
// and a test slice. Ratios outside (0,1) fall back to 0.8. Both slices are
// non-empty when there are at least two examples.
func Split(examples []Example, trainRatio float64, seed int64) ([]Example, []Example) {
	if len(examples) == 0 {
		return nil, nil
	}
	if len(examples) == 1 {
		return append([]Example(nil), examples...), nil
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		trainRatio = 0.8
	}

	shuffled := append([]Example(nil), examples...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	trainSize := int(math.Round(trainRatio * float64(len(shuffled))))
	if trainSize <= 0 {
		trainSize = 1
	}
	if trainSize >= len(shuffled) {
		trainSize = len(shuffled) - 1
	}

	return shuffled[:trainSize:trainSize], shuffled[trainSize:]
}
