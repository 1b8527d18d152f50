package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

// sizes of date and timestamp structs in bytes
const (
	DateSize      = 6
	TimestampSize = 16
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.000000000"
	maxFraction     = 999_999_999
)

// Date mirrors DATE_STRUCT
type Date struct {
	Year  int16
	Month uint16
	Day   uint16
}

// Timestamp mirrors TIMESTAMP_STRUCT, Fraction is in nanoseconds
type Timestamp struct {
	Year     int16
	Month    uint16
	Day      uint16
	Hour     uint16
	Minute   uint16
	Second   uint16
	Fraction uint32
}

// DecodeDate reads a date struct from the first DateSize bytes of b
func DecodeDate(b []byte) Date {
	return Date{
		Year:  int16(binary.LittleEndian.Uint16(b[0:2])), //nolint:gosec // two's complement of the C int16
		Month: binary.LittleEndian.Uint16(b[2:4]),
		Day:   binary.LittleEndian.Uint16(b[4:6]),
	}
}

// Put writes the date struct into the first DateSize bytes of b
func (d Date) Put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], uint16(d.Year)) //nolint:gosec
	binary.LittleEndian.PutUint16(b[2:4], d.Month)
	binary.LittleEndian.PutUint16(b[4:6], d.Day)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time converts the date to midnight UTC of that day, invalid calendar dates are rejected
func (d Date) Time() (time.Time, error) {
	if d.Year < 1 {
		return time.Time{}, fmt.Errorf("invalid date %s, year out of range", d)
	}
	t, err := time.Parse(dateLayout, d.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %s: %w", d, err)
	}
	return t, nil
}

// DateOf makes a date struct from the calendar date of t
func DateOf(t time.Time) (Date, error) {
	if t.Year() < 1 || t.Year() > 9999 {
		return Date{}, fmt.Errorf("year %d out of range", t.Year())
	}
	return Date{Year: int16(t.Year()), Month: uint16(t.Month()), Day: uint16(t.Day())}, nil //nolint:gosec // range checked
}

// DecodeTimestamp reads a timestamp struct from the first TimestampSize bytes of b.
// Six uint16 fields take bytes 0-11, the uint32 fraction takes bytes 12-15, the struct has no padding.
func DecodeTimestamp(b []byte) Timestamp {
	return Timestamp{
		Year:     int16(binary.LittleEndian.Uint16(b[0:2])), //nolint:gosec
		Month:    binary.LittleEndian.Uint16(b[2:4]),
		Day:      binary.LittleEndian.Uint16(b[4:6]),
		Hour:     binary.LittleEndian.Uint16(b[6:8]),
		Minute:   binary.LittleEndian.Uint16(b[8:10]),
		Second:   binary.LittleEndian.Uint16(b[10:12]),
		Fraction: binary.LittleEndian.Uint32(b[12:16]),
	}
}

// Put writes the timestamp struct into the first TimestampSize bytes of b
func (ts Timestamp) Put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], uint16(ts.Year)) //nolint:gosec
	binary.LittleEndian.PutUint16(b[2:4], ts.Month)
	binary.LittleEndian.PutUint16(b[4:6], ts.Day)
	binary.LittleEndian.PutUint16(b[6:8], ts.Hour)
	binary.LittleEndian.PutUint16(b[8:10], ts.Minute)
	binary.LittleEndian.PutUint16(b[10:12], ts.Second)
	binary.LittleEndian.PutUint32(b[12:16], ts.Fraction)
}

// String formats the timestamp with the fraction as a 9-digit zero-padded decimal
func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%09d", ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second, ts.Fraction)
}

// Time converts the timestamp to time.Time in UTC. The fraction is combined with the seconds
// through its normalized 9-digit form, so nanoseconds survive as-is.
func (ts Timestamp) Time() (time.Time, error) {
	if ts.Year < 1 {
		return time.Time{}, fmt.Errorf("invalid timestamp %s, year out of range", ts)
	}
	if ts.Fraction > maxFraction {
		return time.Time{}, fmt.Errorf("invalid timestamp fraction %d, must be below one second", ts.Fraction)
	}
	t, err := time.Parse(timestampLayout, ts.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", ts, err)
	}
	return t, nil
}

// TimestampOf makes a timestamp struct from the wall clock of t
func TimestampOf(t time.Time) (Timestamp, error) {
	if t.Year() < 1 || t.Year() > 9999 {
		return Timestamp{}, fmt.Errorf("year %d out of range", t.Year())
	}
	return Timestamp{
		Year:     int16(t.Year()), //nolint:gosec // range checked
		Month:    uint16(t.Month()),
		Day:      uint16(t.Day()),
		Hour:     uint16(t.Hour()),
		Minute:   uint16(t.Minute()),
		Second:   uint16(t.Second()),
		Fraction: uint32(t.Nanosecond()),
	}, nil
}
