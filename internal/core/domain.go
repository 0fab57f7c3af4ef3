package core

// DatasetTag identifies one of the three source datasets.
type DatasetTag string

const (
	DatasetRoster     DatasetTag = "roster"
	DatasetMembership DatasetTag = "membership"
	DatasetSessions   DatasetTag = "sessions"
)

// AllDatasets lists the datasets in load order.
var AllDatasets = []DatasetTag{DatasetRoster, DatasetMembership, DatasetSessions}

func (t DatasetTag) String() string { return string(t) }

// IsValid reports whether t names a known dataset.
func (t DatasetTag) IsValid() bool {
	switch t {
	case DatasetRoster, DatasetMembership, DatasetSessions:
		return true
	default:
		return false
	}
}

type (
	// ClubRecord is one roster row. Total is taken from the source as is
	// and may disagree with Males+Females.
	ClubRecord struct {
		Club    string
		Males   int64
		Females int64
		Total   int64
	}

	// YearlyMembership is one row of the yearly membership dataset.
	YearlyMembership struct {
		Club      string
		Total2023 int64
		Total2024 int64
	}

	// YearlySession is one row of the average reading session dataset.
	YearlySession struct {
		Club        string
		Average2023 float64
		Average2024 float64
	}
)

// Consistent reports whether the roster total matches males plus females.
func (r ClubRecord) Consistent() bool {
	return r.Total == r.Males+r.Females
}
