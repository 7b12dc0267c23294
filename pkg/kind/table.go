// SPDX-License-Identifier: BSD-3-Clause

package kind

import "fmt"

// CheckOrdered verifies that triples is strictly ascending in
// (servType, servSubType, discriminant) order and non-empty, the
// invariant spec §3/§4.4/§8 require of every configuration table.
func CheckOrdered(triples []Triple) error {
	if len(triples) == 0 {
		return fmt.Errorf("%w: table is empty", ErrTableInvalid)
	}
	for i := 1; i < len(triples); i++ {
		if !triples[i-1].Less(triples[i]) {
			return fmt.Errorf("%w: row %d (%s) does not strictly follow row %d (%s)",
				ErrTableInvalid, i, triples[i], i-1, triples[i-1])
		}
	}
	return nil
}

// FindInCmd performs the ordered linear scan spec §4.4 describes ("a
// binary-searchable ordered scan" — this module scans linearly, see
// DESIGN.md) for the InCommand row matching t.
func FindInCmd(rows []InCmdRow, t Triple) (InCmdRow, bool) {
	for _, r := range rows {
		if r.Triple == t {
			return r, true
		}
		if t.Less(r.Triple) {
			break
		}
	}
	return InCmdRow{}, false
}

// FindInRep is FindInCmd for the InReport table.
func FindInRep(rows []InRepRow, t Triple) (InRepRow, bool) {
	for _, r := range rows {
		if r.Triple == t {
			return r, true
		}
		if t.Less(r.Triple) {
			break
		}
	}
	return InRepRow{}, false
}

// FindOutCmp is FindInCmd for the OutComponent table.
func FindOutCmp(rows []OutCmpRow, t Triple) (OutCmpRow, bool) {
	for _, r := range rows {
		if r.Triple == t {
			return r, true
		}
		if t.Less(r.Triple) {
			break
		}
	}
	return OutCmpRow{}, false
}

// CheckInCmdTable verifies ordering over an InCmdRow table.
func CheckInCmdTable(rows []InCmdRow) error {
	triples := make([]Triple, len(rows))
	for i, r := range rows {
		triples[i] = r.Triple
	}
	return CheckOrdered(triples)
}

// CheckInRepTable verifies ordering over an InRepRow table.
func CheckInRepTable(rows []InRepRow) error {
	triples := make([]Triple, len(rows))
	for i, r := range rows {
		triples[i] = r.Triple
	}
	return CheckOrdered(triples)
}

// CheckOutCmpTable verifies ordering over an OutCmpRow table, plus that
// every packet length is positive (spec §4.13).
func CheckOutCmpTable(rows []OutCmpRow) error {
	triples := make([]Triple, len(rows))
	for i, r := range rows {
		triples[i] = r.Triple
		if r.PacketLength <= 0 {
			return fmt.Errorf("%w: row %d (%s) has non-positive packet length", ErrTableInvalid, i, r.Triple)
		}
	}
	return CheckOrdered(triples)
}

// CheckServDescTable verifies ordering over a ServDescRow table by
// (servType, servSubType).
func CheckServDescTable(rows []ServDescRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: table is empty", ErrTableInvalid)
	}
	for i := 1; i < len(rows); i++ {
		a, b := rows[i-1], rows[i]
		if a.ServType > b.ServType || (a.ServType == b.ServType && a.ServSubType >= b.ServSubType) {
			return fmt.Errorf("%w: row %d does not strictly follow row %d", ErrTableInvalid, i, i-1)
		}
	}
	return nil
}
