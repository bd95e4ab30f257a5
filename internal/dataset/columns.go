package dataset

// Column headers of the eye-tracking exports
const (
	ColumnTrialIndex = "TRIAL_INDEX"
	ColumnSide       = "LADO"
	ColumnAccuracy   = "ACCURACY"
	ColumnAreaLabel  = "CURRENT_FIX_INTEREST_AREA_LABEL"
	ColumnDuration   = "CURRENT_FIX_DURATION"
)

// Required columns per reading of the data
var (
	TrialColumns    = []string{ColumnTrialIndex, ColumnSide, ColumnAccuracy}
	SaccadeColumns  = []string{ColumnSide}
	FixationColumns = []string{ColumnAreaLabel, ColumnDuration}
)
