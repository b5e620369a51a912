package density

var _ Estimator = MeanDistance{}

// MeanDistance is the arithmetic mean of the k-nearest-neighbor distances.
type MeanDistance struct{}

func (MeanDistance) Name() string {
	return string(MethodKNNMean)
}

func (MeanDistance) Kind() Kind {
	return KindDistance
}

func (MeanDistance) Estimate(id int, hood Neighborhood) (float64, error) {
	set, err := neighbors(id, hood)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, n := range set {
		sum += n.Distance
	}
	return sum / float64(len(set)), nil
}
