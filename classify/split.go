package classify

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and holdout sets,
// keeping the class proportions of labels in both. holdout is the fraction
// assigned to the second set. Indices come back sorted.
func StratifiedSplit(labels []float64, holdout float64, rng *rand.Rand) (train, test []int) {
	for _, class := range byClass(labels) {
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})
		n := int(math.Round(holdout * float64(len(class))))
		test = append(test, class[:n]...)
		train = append(train, class[n:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// StratifiedFolds partitions row indices into k folds, each approximately
// preserving the class proportions of labels. Every index appears in
// exactly one fold.
func StratifiedFolds(labels []float64, k int, rng *rand.Rand) [][]int {
	folds := make([][]int, k)
	for _, class := range byClass(labels) {
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})
		for i, idx := range class {
			folds[i%k] = append(folds[i%k], idx)
		}
	}
	for i := range folds {
		sort.Ints(folds[i])
	}
	return folds
}

func byClass(labels []float64) [][]int {
	var pos, neg []int
	for i, l := range labels {
		if l > 0 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	return [][]int{pos, neg}
}
