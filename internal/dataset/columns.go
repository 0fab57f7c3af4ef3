package dataset

import "clubstats/internal/core"

// Source column headers. Matching ignores case and surrounding whitespace.
const (
	ColRosterClub   = "Reading club"
	ColRosterMales  = "Number of males"
	ColRosterFemale = "Number of females"
	ColRosterTotal  = "Total"

	ColMembershipClub = "Reading Club"
	ColMembership2023 = "2023 Total Membership"
	ColMembership2024 = "2024 Total Membership"

	ColSessionsClub = "Reading Club"
	ColSessions2023 = "2023 Average reading session"
	ColSessions2024 = "2024 Average reading session"
)

// RequiredColumns lists the headers each dataset must carry, club name first.
var RequiredColumns = map[core.DatasetTag][]string{
	core.DatasetRoster:     {ColRosterClub, ColRosterMales, ColRosterFemale, ColRosterTotal},
	core.DatasetMembership: {ColMembershipClub, ColMembership2023, ColMembership2024},
	core.DatasetSessions:   {ColSessionsClub, ColSessions2023, ColSessions2024},
}
