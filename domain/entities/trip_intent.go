package entities

// TripIntent holds the trip parameters recognized in a single utterance or
// typed sentence. Zero values mean the field was not found; callers merge
// recognized fields into their own state and ask the user for the rest.
type TripIntent struct {
	Destination string  `json:"destination,omitempty" bson:"destination,omitempty"`
	Budget      float64 `json:"budget,omitempty" bson:"budget,omitempty"`
	Travelers   int     `json:"travelers,omitempty" bson:"travelers,omitempty"`
	StartDate   string  `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

// IsEmpty reports whether no field was recognized.
func (t TripIntent) IsEmpty() bool {
	return t == TripIntent{}
}

// Merge copies recognized fields from other into t, never overwriting a
// field that is already populated.
func (t *TripIntent) Merge(other TripIntent) {
	if t.Destination == "" {
		t.Destination = other.Destination
	}
	if t.Budget == 0 {
		t.Budget = other.Budget
	}
	if t.Travelers == 0 {
		t.Travelers = other.Travelers
	}
	if t.StartDate == "" {
		t.StartDate = other.StartDate
	}
	if t.EndDate == "" {
		t.EndDate = other.EndDate
	}
}
