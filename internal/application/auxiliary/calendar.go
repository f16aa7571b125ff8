package auxiliary

import (
	"strings"
	"time"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrUnrecognizedDate = errors.Sentinel(errors.ErrCodeUnrecognizedDate, "unrecognized auxiliary date")
	ErrUnknownControl   = errors.Sentinel(errors.ErrCodeUnknownControl, "date outside the control calendar")
	ErrMalformedAuxRow  = errors.Sentinel(errors.ErrCodeMalformedAuxRow, "malformed auxiliary row")
)

// Control values.
const (
	ControlUnified = "unified"
	ControlDivided = "divided"
)

// Republican party code in the legislator tables.
const partyRepublican = "200"

// Calendar holds the per-year political context of the federal government.
type Calendar struct {
	Unified           map[int]bool
	Divided           map[int]bool
	HouseDemMajority  map[int]bool
	SenateDemMajority map[int]bool
	DemPresident      map[int]bool
}

func years(spans ...[2]int) map[int]bool {
	out := make(map[int]bool)
	for _, s := range spans {
		for y := s[0]; y <= s[1]; y++ {
			out[y] = true
		}
	}
	return out
}

// USCalendar covers 1973 through 2016.
func USCalendar() *Calendar {
	return &Calendar{
		Divided:           years([2]int{1973, 1976}, [2]int{1981, 1992}, [2]int{1995, 2002}, [2]int{2007, 2008}, [2]int{2011, 2016}),
		Unified:           years([2]int{1977, 1980}, [2]int{1993, 1994}, [2]int{2003, 2006}, [2]int{2009, 2010}),
		HouseDemMajority:  years([2]int{1973, 1994}, [2]int{2007, 2010}),
		SenateDemMajority: years([2]int{1973, 1980}, [2]int{1987, 1994}, [2]int{2001, 2001}, [2]int{2007, 2014}),
		DemPresident:      years([2]int{1977, 1980}, [2]int{1993, 2000}, [2]int{2009, 2016}),
	}
}

// Control classifies the government on date as unified or divided.
func (c *Calendar) Control(date time.Time) (string, error) {
	y := date.Year()
	switch {
	case c.Unified[y]:
		return ControlUnified, nil
	case c.Divided[y]:
		return ControlDivided, nil
	}
	return "", ErrUnknownControl.WithDetail(date.Format(dateLayout))
}

// inMajority reports whether a member of party belongs to the majority
// given whether Democrats held it.
func inMajority(party string, demMajority bool) bool {
	return (party == partyRepublican) != demMajority
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ----------------------------------------------------------------------------
// Dates
// ----------------------------------------------------------------------------

const (
	dateLayout = "01/02/2006"
	// Parse layouts accept unpadded days and months.
	slashLayout = "1/2/2006"
	dashLayout  = "2-1-06"
)

// ParseDate accepts "MM/DD/YYYY" or a two-character prefix followed by
// "DD-MM-YY".
func ParseDate(s string) (time.Time, error) {
	if strings.Contains(s, "/") {
		t, err := time.Parse(slashLayout, s)
		if err != nil {
			return time.Time{}, ErrUnrecognizedDate.WithDetail(s).WithCause(err)
		}
		return t, nil
	}
	if len(s) < 3 {
		return time.Time{}, ErrUnrecognizedDate.WithDetail(s)
	}
	t, err := time.Parse(dashLayout, s[2:])
	if err != nil {
		return time.Time{}, ErrUnrecognizedDate.WithDetail(s).WithCause(err)
	}
	return t, nil
}

//Personal.AI order the ending
