// Package curated holds the hand maintained reference tables that the basis api cannot provide: every
// person that has served, the roster of legislatures 1 to 9, and the (legislature, code) -> person
// mapping for legislatures 10 and up.
package curated

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"akleg-data/internal/model"
	"akleg-data/lib/textutil"

	"github.com/zeebo/blake3"
)

const (
	SheetPeople        = "people"
	SheetMembers1To9   = "members_1_to_9"
	SheetMembers10Plus = "members_10_plus"
)

// Sheets lists every sheet of a snapshot in the order they are hashed.
var Sheets = []string{SheetPeople, SheetMembers1To9, SheetMembers10Plus}

// Snapshot is an immutable, content addressed copy of the curated sheets.
type Snapshot struct {
	// hex encoded blake3 digest of the raw sheets
	Version       string
	People        []model.Person
	Members1To9   []model.CuratedMember
	Members10Plus []model.MemberMapping

	raw map[string][]byte
}

// Raw returns the payload a sheet was parsed from.
func (s Snapshot) Raw(sheet string) []byte {
	return s.raw[sheet]
}

// Digest hashes the raw payloads, each one is length prefixed so that moving bytes between sheets
// changes the digest.
func Digest(raw map[string][]byte) string {
	hasher := blake3.New()
	for _, sheet := range Sheets {
		payload := raw[sheet]
		fmt.Fprintf(hasher, "%s:%d\n", sheet, len(payload))
		_, _ = hasher.Write(payload)
	}
	var buf [16]byte
	_, _ = hasher.Digest().Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// Parse builds a snapshot out of the raw csv payload of every sheet.
func Parse(raw map[string][]byte) (Snapshot, error) {
	for _, sheet := range Sheets {
		if _, ok := raw[sheet]; !ok {
			return Snapshot{}, fmt.Errorf("missing sheet %s", sheet)
		}
	}

	snapshot := Snapshot{
		Version: Digest(raw),
		raw:     raw,
	}

	var err error
	snapshot.People, err = parseRows(raw[SheetPeople], parsePerson)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", SheetPeople, err)
	}
	snapshot.Members1To9, err = parseRows(raw[SheetMembers1To9], parseCuratedMember)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", SheetMembers1To9, err)
	}
	snapshot.Members10Plus, err = parseRows(raw[SheetMembers10Plus], parseMemberMapping)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", SheetMembers10Plus, err)
	}
	return snapshot, nil
}

// row gives access to the cells of a csv record by header name, cells of missing columns are empty.
type row struct {
	line    int
	header  map[string]int
	columns []string
}

func (r row) get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.columns) {
		return ""
	}
	return r.columns[i]
}

func (r row) nullString(column string) sql.NullString {
	s, ok := textutil.CleanString(r.get(column))
	return sql.NullString{String: s, Valid: ok}
}

func (r row) required(column string) (string, error) {
	s, ok := textutil.CleanString(r.get(column))
	if !ok {
		return "", fmt.Errorf("line %d: %s is empty", r.line, column)
	}
	return s, nil
}

func (r row) legislature() (int16, error) {
	s, err := r.required("LegislatureNumber")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("line %d: LegislatureNumber: %w", r.line, err)
	}
	return int16(n), nil
}

func (r row) nullBool(column string) sql.NullBool {
	s, ok := textutil.CleanString(r.get(column))
	if !ok {
		return sql.NullBool{}
	}
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return model.Bool(true)
	case "false", "f", "no", "n", "0":
		return model.Bool(false)
	}
	return sql.NullBool{}
}

func (r row) memberFields() model.MemberFields {
	return model.MemberFields{
		Chamber:    r.nullString("Chamber"),
		District:   r.nullString("District"),
		Party:      r.nullString("Party"),
		IsMajority: r.nullBool("IsMajority"),
		IsActive:   r.nullBool("IsActive"),
		Comment:    r.nullString("Comment"),
		Phone:      r.nullString("Phone"),
		EMail:      r.nullString("EMail"),
		Building:   r.nullString("Building"),
		Room:       r.nullString("Room"),
	}
}

func parseRows[T any](payload []byte, parse func(row) (T, error)) ([]T, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1

	headerColumns, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(headerColumns))
	for i, name := range headerColumns {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var out []T
	for line := 2; ; line++ {
		columns, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(columns) {
			continue
		}
		parsed, err := parse(row{line: line, header: header, columns: columns})
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func isBlank(columns []string) bool {
	for _, c := range columns {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parsePerson(r row) (model.Person, error) {
	var p model.Person
	var err error
	if p.PersonId, err = r.required("PersonId"); err != nil {
		return p, err
	}
	if !strings.Contains(p.PersonId, ":") {
		return p, fmt.Errorf("line %d: PersonId %q does not contain ':'", r.line, p.PersonId)
	}
	if p.FullName, err = r.required("FullName"); err != nil {
		return p, err
	}
	if p.FirstName, err = r.required("FirstName"); err != nil {
		return p, err
	}
	if p.LastName, err = r.required("LastName"); err != nil {
		return p, err
	}
	p.MiddleName = r.nullString("MiddleName")
	p.NickName = r.nullString("NickName")
	p.Suffix = r.nullString("Suffix")
	return p, nil
}

func parseCuratedMember(r row) (model.CuratedMember, error) {
	var m model.CuratedMember
	var err error
	if m.LegislatureNumber, err = r.legislature(); err != nil {
		return m, err
	}
	if m.PersonId, err = r.required("PersonId"); err != nil {
		return m, err
	}
	m.MemberCode = r.nullString("MemberCode")
	m.MemberFields = r.memberFields()
	return m, nil
}

func parseMemberMapping(r row) (model.MemberMapping, error) {
	var m model.MemberMapping
	var err error
	if m.LegislatureNumber, err = r.legislature(); err != nil {
		return m, err
	}
	if m.MemberCode, err = r.required("MemberCode"); err != nil {
		return m, err
	}
	if m.PersonId, err = r.required("PersonId"); err != nil {
		return m, err
	}
	return m, nil
}
