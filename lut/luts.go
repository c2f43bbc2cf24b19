package lut

// LookUpTables bundles every table the prediction pipeline is built on.
// It is built once at startup and shared, read-only, by every predictor
// and coder instance.
type LookUpTables struct {
	log2    *Log2Lut
	stretch *StretchLut
	squash  *SquashLut
	rates   *DeceleratingEstimatorRates
	cache   *DeceleratingEstimatorCache
	preds   *DeceleratingEstimatorPredictions
	cost    *CostTrackersLut
	apm0    *ApmWeightingLut
	apm1    *ApmWeightingLut
}

// New builds the whole table set.
func New() *LookUpTables {
	squash := NewSquashLut()
	rates := NewDefaultDeceleratingEstimatorRates()
	log2 := NewLog2Lut()
	return &LookUpTables{
		log2:    log2,
		stretch: NewStretchLut(),
		squash:  squash,
		rates:   rates,
		cache:   NewDeceleratingEstimatorCache(rates),
		preds:   NewDeceleratingEstimatorPredictions(rates),
		cost:    NewCostTrackersLut(log2, rates),
		apm0:    NewApmWeightingLut(0, squash),
		apm1:    NewApmWeightingLut(1, squash),
	}
}

func (l *LookUpTables) Log2() *Log2Lut       { return l.log2 }
func (l *LookUpTables) Stretch() *StretchLut { return l.stretch }
func (l *LookUpTables) Squash() *SquashLut   { return l.squash }

func (l *LookUpTables) EstimatorRates() *DeceleratingEstimatorRates       { return l.rates }
func (l *LookUpTables) EstimatorCache() *DeceleratingEstimatorCache       { return l.cache }
func (l *LookUpTables) EstimatorPredictions() *DeceleratingEstimatorPredictions { return l.preds }
func (l *LookUpTables) CostTrackers() *CostTrackersLut                    { return l.cost }

// ApmLut returns the precomputed weighting table for an APM indexing its
// input with the given number of fewer-than-full stretched bits (0 or 1,
// matching the finalizer's order-0 vs order-1+ APMs).
func (l *LookUpTables) ApmLut(stretchedScaleDownBits uint8) *ApmWeightingLut {
	if stretchedScaleDownBits == 0 {
		return l.apm0
	}
	return l.apm1
}
