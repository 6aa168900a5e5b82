package training

import (
	"fmt"
	"sort"

	"grid-harness/core/models"
)

// GBMEngine trains gradient-boosted regression trees with a gaussian loss.
// Hyperparameters: ntrees, max_depth, min_rows, nbins, learn_rate.
type GBMEngine struct{}

// GBMModel is a trained boosted-tree ensemble
type GBMModel struct {
	base       float64
	learnRate  float64
	trees      []*treeNode
	predictors []string
}

type treeNode struct {
	col   int     // predictor index the split tests
	split float64 // go left when value < split
	value float64 // leaf prediction (mean residual)
	left  *treeNode
	right *treeNode
}

// Train fits the ensemble to the target column by residual boosting
func (e *GBMEngine) Train(def models.JobDefinition, train, valid *Frame) (Model, error) {
	ntrees := hpInt(def.Hyperparameters, "ntrees", 50)
	maxDepth := hpInt(def.Hyperparameters, "max_depth", 5)
	minRows := hpInt(def.Hyperparameters, "min_rows", 10)
	nbins := hpInt(def.Hyperparameters, "nbins", 20)
	learnRate := hpFloat(def.Hyperparameters, "learn_rate", 0.1)

	if ntrees < 1 {
		return nil, fmt.Errorf("ntrees must be at least 1, got %d", ntrees)
	}

	target, err := train.Column(def.TargetColumn)
	if err != nil {
		return nil, err
	}
	names, cols := train.Predictors(def.TargetColumn)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no predictor columns besides target %q", def.TargetColumn)
	}

	base := mean(target)
	model := &GBMModel{base: base, learnRate: learnRate, predictors: names}

	residual := make([]float64, len(target))
	prediction := make([]float64, len(target))
	for i := range target {
		prediction[i] = base
		residual[i] = target[i] - base
	}

	rows := make([]int, len(target))
	for i := range rows {
		rows[i] = i
	}

	for t := 0; t < ntrees; t++ {
		tree := buildTree(cols, residual, rows, maxDepth, minRows, nbins)
		model.trees = append(model.trees, tree)
		for i := range target {
			prediction[i] += learnRate * tree.predict(cols, i)
			residual[i] = target[i] - prediction[i]
		}
	}

	return model, nil
}

// Score appends a "predict" column computed from the ensemble
func (m *GBMModel) Score(frame *Frame) (*Frame, error) {
	cols := make([][]float64, len(m.predictors))
	for i, name := range m.predictors {
		col, err := frame.Column(name)
		if err != nil {
			return nil, fmt.Errorf("scoring frame is missing predictor: %w", err)
		}
		cols[i] = col
	}

	out := make([]float64, frame.NumRows())
	for i := range out {
		p := m.base
		for _, tree := range m.trees {
			p += m.learnRate * tree.predict(cols, i)
		}
		out[i] = p
	}
	return &Frame{Names: []string{"predict"}, Cols: [][]float64{out}}, nil
}

// buildTree fits one regression tree on the residuals of the rows given
func buildTree(cols [][]float64, residual []float64, rows []int, depth, minRows, nbins int) *treeNode {
	leaf := &treeNode{col: -1, value: meanAt(residual, rows)}
	if depth <= 0 || len(rows) < 2*minRows {
		return leaf
	}

	bestCol, bestSplit, bestGain := -1, 0.0, 0.0
	for c := range cols {
		split, gain, ok := bestSplitFor(cols[c], residual, rows, minRows, nbins)
		if ok && gain > bestGain {
			bestCol, bestSplit, bestGain = c, split, gain
		}
	}
	if bestCol < 0 {
		return leaf
	}

	var left, right []int
	for _, r := range rows {
		if cols[bestCol][r] < bestSplit {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &treeNode{
		col:   bestCol,
		split: bestSplit,
		left:  buildTree(cols, residual, left, depth-1, minRows, nbins),
		right: buildTree(cols, residual, right, depth-1, minRows, nbins),
	}
}

// bestSplitFor scans nbins quantile cut points for the split with the
// largest squared-error reduction that leaves minRows on each side
func bestSplitFor(col, residual []float64, rows []int, minRows, nbins int) (float64, float64, bool) {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = col[r]
	}
	sort.Float64s(values)

	totalSum, totalN := 0.0, float64(len(rows))
	for _, r := range rows {
		totalSum += residual[r]
	}

	bestSplit, bestGain, found := 0.0, 0.0, false
	for b := 1; b < nbins; b++ {
		split := values[len(values)*b/nbins]
		leftSum, leftN := 0.0, 0.0
		for _, r := range rows {
			if col[r] < split {
				leftSum += residual[r]
				leftN++
			}
		}
		rightN := totalN - leftN
		if leftN < float64(minRows) || rightN < float64(minRows) {
			continue
		}
		rightSum := totalSum - leftSum
		gain := leftSum*leftSum/leftN + rightSum*rightSum/rightN - totalSum*totalSum/totalN
		if gain > bestGain {
			bestSplit, bestGain, found = split, gain, true
		}
	}
	return bestSplit, bestGain, found
}

func (n *treeNode) predict(cols [][]float64, row int) float64 {
	if n.col < 0 {
		return n.value
	}
	if cols[n.col][row] < n.split {
		return n.left.predict(cols, row)
	}
	return n.right.predict(cols, row)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanAt(xs []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += xs[r]
	}
	return sum / float64(len(rows))
}
