package tacho

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gregLibert/tachograph-card/pkg/record"
)

// CardIdentification is the first record of EF Identification.
// Only the card number is validated on read; the authority name stays raw
// so that a malformed name cannot hide a readable card number.
type CardIdentification struct {
	IssuingMemberState   byte      `record:"1,raw"`
	CardNumber           string    `record:"16,text"`
	IssuingAuthorityName RawName   `record:"36,raw"`
	IssueDate            time.Time `record:"4,time"`
	ValidityBegin        time.Time `record:"4,time"`
	ExpiryDate           time.Time `record:"4,time"`
}

// AuthorityName decodes the issuing authority name.
func (c *CardIdentification) AuthorityName() (string, error) {
	return c.IssuingAuthorityName.Decode()
}

// RawName is an undecoded Name field: code page byte and 35 characters.
type RawName [36]byte

// Decode applies the name rules of the record package.
func (n RawName) Decode() (string, error) {
	return record.DecodeName(n[:])
}

func (n RawName) String() string {
	s, err := n.Decode()
	if err != nil {
		return fmt.Sprintf("%X (undecodable)", n[:])
	}
	return fmt.Sprintf("%q", s)
}

// DriverCardHolderIdentification is the second record of EF Identification.
type DriverCardHolderIdentification struct {
	Surname           string `record:"36,name"`
	FirstNames        string `record:"36,name"`
	BirthDate         Datef
	PreferredLanguage string `record:"2,text"`
}

// Datef is a calendar date stored as BCD yyyy mm dd.
type Datef struct {
	Year  string `record:"2,bcd"`
	Month string `record:"1,bcd"`
	Day   string `record:"1,bcd"`
}

// IsZero reports an unset date (all digits zero).
func (d Datef) IsZero() bool {
	return strings.Trim(d.Year+d.Month+d.Day, "0") == ""
}

// Time converts d to midnight UTC. An unset date gives the zero time.
func (d Datef) Time() (time.Time, error) {
	if d.IsZero() {
		return time.Time{}, nil
	}

	year, err := strconv.Atoi(d.Year)
	if err != nil {
		return time.Time{}, fmt.Errorf("year %q: %w", d.Year, err)
	}
	month, err := strconv.Atoi(d.Month)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", d.Month, err)
	}
	day, err := strconv.Atoi(d.Day)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: %w", d.Day, err)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %s", d)
	}
	return t, nil
}

func (d Datef) String() string {
	return d.Year + "-" + d.Month + "-" + d.Day
}

// Identification is everything a Session reads from the card.
type Identification struct {
	Card   CardIdentification
	Holder DriverCardHolderIdentification
}

// Describe renders both records, one field per line.
func (id *Identification) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== CARD IDENTIFICATION ===")
	record.WriteFields(&sb, "Card", &id.Card)
	sb.WriteString("\n=== CARD HOLDER IDENTIFICATION ===")
	record.WriteFields(&sb, "Holder", &id.Holder)

	return sb.String()
}

func decodeCardIdentification(data []byte) (CardIdentification, error) {
	var rec CardIdentification
	if err := record.Unmarshal(data, &rec); err != nil {
		return CardIdentification{}, fmt.Errorf("card identification: %w", err)
	}
	return rec, nil
}

func decodeHolderIdentification(data []byte) (DriverCardHolderIdentification, error) {
	var rec DriverCardHolderIdentification
	if err := record.Unmarshal(data, &rec); err != nil {
		return DriverCardHolderIdentification{}, fmt.Errorf("card holder identification: %w", err)
	}
	return rec, nil
}
