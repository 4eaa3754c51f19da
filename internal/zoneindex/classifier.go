package zoneindex

// ClassifierResult is the Geo-fence Classifier's output record. It is
// always rule-based, so Confidence is fixed at 1.0.
type ClassifierResult struct {
	InRestricted bool
	InSafe       bool
	ZoneName     string
	DangerLevel  int
	SafetyRating int
	Confidence   float64
}

// Classify is a pure function of (lat, lon, snapshot): it performs no I/O
// and holds no state beyond the snapshot it is given.
func Classify(snapshot *Snapshot, lat, lon float64) ClassifierResult {
	verdict := snapshot.Contains(lat, lon)
	return ClassifierResult{
		InRestricted: verdict.InRestricted,
		InSafe:       verdict.InSafe,
		ZoneName:     verdict.ZoneName,
		DangerLevel:  verdict.DangerLevel,
		SafetyRating: verdict.SafetyRating,
		Confidence:   1.0,
	}
}
