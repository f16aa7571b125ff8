package auxiliary

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Column positions in the bills TSV.
const (
	colBaseID        = 1
	colCommemorative = 6
	colDate          = 9
	colTopic         = 10
	colDW            = 37
	colMajority      = 45
	colMember        = 46
	colParty         = 51
)

// Column positions in the chamber member CSVs.
const (
	colMemberCongress = 0
	colMemberID       = 2
	colMemberParty    = 8
)

// Congresses from this one on take party from the member tables.
const memberTableCongress = 103

var reMemberID = regexp.MustCompile(`[0-9]+-[0-9]+-[0-9]+`)

// Members maps congress to member ID to party code.
type Members map[string]map[string]string

func (m Members) party(congress, member string) (string, bool) {
	p, ok := m[congress][member]
	return p, ok
}

// ReadMembers reads a chamber member CSV.  The header row is skipped.
func ReadMembers(r io.Reader) (Members, error) {
	rows, err := readAll(r, ',')
	if err != nil {
		return nil, err
	}
	out := make(Members)
	for i, row := range rows {
		if len(row) <= colMemberParty {
			return nil, ErrMalformedAuxRow.WithDetailf("member row %d has %d columns", i+1, len(row))
		}
		c := row[colMemberCongress]
		if out[c] == nil {
			out[c] = make(map[string]string)
		}
		out[c][row[colMemberID]] = row[colMemberParty]
	}
	return out, nil
}

func readAll(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, ErrMalformedAuxRow.WithCause(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// Builder turns bill rows into a Table.
type Builder struct {
	Calendar *Calendar
	House    Members
	Senate   Members
}

// FormatRow derives the auxiliary fields of one bill row.
func (b *Builder) FormatRow(row []string) (legislation.AuxFields, error) {
	if len(row) <= colParty {
		return legislation.AuxFields{}, ErrMalformedAuxRow.WithDetailf("bill row has %d columns", len(row))
	}
	date, err := ParseDate(row[colDate])
	if err != nil {
		return legislation.AuxFields{}, err
	}
	control, err := b.Calendar.Control(date)
	if err != nil {
		return legislation.AuxFields{}, err
	}

	year := date.Year()
	member := reLeadingDigits.FindString(row[colMember])
	congress := reLeadingDigits.FindString(row[colBaseID])
	n, _ := strconv.Atoi(congress)

	party, majority := row[colParty], row[colMajority]
	if n >= memberTableCongress {
		if p, ok := b.House.party(congress, member); ok {
			party = p
			majority = flag(inMajority(p, b.Calendar.HouseDemMajority[year]))
		} else if p, ok := b.Senate.party(congress, member); ok {
			party = p
			majority = flag(inMajority(p, b.Calendar.SenateDemMajority[year]))
		}
	}
	president := flag(inMajority(party, b.Calendar.DemPresident[year]))

	return legislation.AuxFields{
		Date:            ptr(date.Format(dateLayout)),
		Topic:           ptr(row[colTopic]),
		DW:              ptr(row[colDW]),
		SponsorParty:    ptr(party),
		SponsorMajority: ptr(majority),
		Control:         ptr(control),
		PresidentParty:  ptr(president),
		Commemorative:   ptr(row[colCommemorative]),
	}, nil
}

// Build reads the bills TSV.  Rows without a well-formed bill identifier
// and sponsor member code are skipped.
func (b *Builder) Build(bills io.Reader) (*Table, error) {
	rows, err := readAll(bills, '\t')
	if err != nil {
		return nil, err
	}
	t := NewTable()
	for i, row := range rows {
		if len(row) <= colMember || !reBaseID.MatchString(row[colBaseID]) || !reMemberID.MatchString(row[colMember]) {
			continue
		}
		id, err := DocumentID(row[colBaseID])
		if err != nil {
			return nil, err
		}
		fields, err := b.FormatRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetCode(err), "bill row %d", i+1)
		}
		t.Put(id, fields)
	}
	return t, nil
}

// LoadDir builds a Table from the files in dir whose names contain country:
// one "bills" TSV plus optional "house" and "senate" member CSVs.
func LoadDir(dir, country string, logger logging.Logger) (*Table, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "read auxiliary directory").WithDetail(dir)
	}

	b := &Builder{Calendar: USCalendar(), House: Members{}, Senate: Members{}}
	var billsPath string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.Contains(name, country) {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case strings.Contains(name, "bills"):
			billsPath = path
		case strings.Contains(name, "senate"):
			if b.Senate, err = readMembersFile(path); err != nil {
				return nil, err
			}
		case strings.Contains(name, "house"):
			if b.House, err = readMembersFile(path); err != nil {
				return nil, err
			}
		}
	}
	if billsPath == "" {
		logger.Warn("no auxiliary bills file", logging.String("dir", dir), logging.String("country", country))
		return NewTable(), nil
	}

	f, err := os.Open(billsPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "open auxiliary bills").WithDetail(billsPath)
	}
	defer f.Close()
	t, err := b.Build(f)
	if err != nil {
		return nil, err
	}
	logger.Info("auxiliary table loaded", logging.String("file", billsPath), logging.Int("rows", t.Len()))
	return t, nil
}

func readMembersFile(path string) (Members, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "open member table").WithDetail(path)
	}
	defer f.Close()
	return ReadMembers(f)
}

func ptr(s string) *string { return &s }

//Personal.AI order the ending
