package domain

// SeverityLevel classifies how serious a triggered scoring rule is.
type SeverityLevel string

const (
	LevelCritico    SeverityLevel = "CRITICO"
	LevelImportante SeverityLevel = "IMPORTANTE"
	LevelModerado   SeverityLevel = "MODERADO"
	LevelDiscreto   SeverityLevel = "DISCRETO"
)

// PointsRange is the inclusive deduction range allowed for a severity level.
type PointsRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

var levelRanges = map[SeverityLevel]PointsRange{
	LevelCritico:    {Min: 16, Max: 20, Default: 18},
	LevelImportante: {Min: 8, Max: 12, Default: 10},
	LevelModerado:   {Min: 5, Max: 8, Default: 6},
	LevelDiscreto:   {Min: 1, Max: 3, Default: 2},
}

// fallbackRange covers unrecognized levels so RangeFor stays total.
var fallbackRange = PointsRange{Min: 1, Max: 20, Default: 10}

// RangeFor returns the point range for a severity level. Total: unrecognized
// levels get the permissive fallback range rather than an error, since levels
// arrive from user-authored rule data.
func RangeFor(level SeverityLevel) PointsRange {
	if r, ok := levelRanges[level]; ok {
		return r
	}
	return fallbackRange
}

// ClampPoints forces points into the range of the given level.
func ClampPoints(level SeverityLevel, points int) int {
	r := RangeFor(level)
	if points < r.Min {
		return r.Min
	}
	if points > r.Max {
		return r.Max
	}
	return points
}

// AdjustPointsForLevelChange recomputes points after a rule's severity is
// re-labelled. Points already inside the new level's range are kept;
// otherwise they reset to the new level's default. Resetting instead of
// clamping avoids turning a deliberately-chosen boundary value into an
// unrelated number.
func AdjustPointsForLevelChange(points int, newLevel SeverityLevel) int {
	r := RangeFor(newLevel)
	if points >= r.Min && points <= r.Max {
		return points
	}
	return r.Default
}
