package firmware

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Intel HEX record types.
const (
	// RecordData carries load data
	RecordData = 0x00

	// RecordEOF terminates the file
	RecordEOF = 0x01

	// RecordExtSegment sets the upper address bits (base = value * 16)
	RecordExtSegment = 0x02

	// RecordStartSegment carries the CS:IP start address (ignored)
	RecordStartSegment = 0x03

	// RecordExtLinear sets the upper address bits (base = value << 16)
	RecordExtLinear = 0x04

	// RecordStartLinear carries the 32-bit start address (ignored)
	RecordStartLinear = 0x05
)

// minRecordBytes is the smallest decoded record: count, address,
// type and checksum with no data.
const minRecordBytes = 5

// Parse parses an Intel HEX file from the given path.
//
// Example:
//
//	img, err := firmware.Parse("blink.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("image size: %d bytes\n", img.Size())
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX file from any io.Reader.
//
// Example:
//
//	img, err := firmware.ParseReader(strings.NewReader(hexText))
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)
	img := NewImage()

	var base uint32
	sawEOF := false
	records := 0

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if sawEOF {
			return nil, fmt.Errorf("line %d: record after end-of-file record", lineNum)
		}

		count, addr, typ, data, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch typ {
		case RecordData:
			for i := 0; i < int(count); i++ {
				img.Set(base+uint32(addr)+uint32(i), data[i])
			}
			records++

		case RecordEOF:
			sawEOF = true

		case RecordExtSegment:
			if count != 2 {
				return nil, fmt.Errorf("line %d: extended segment record needs 2 data bytes, got %d", lineNum, count)
			}
			base = (uint32(data[0])<<8 | uint32(data[1])) * 16

		case RecordExtLinear:
			if count != 2 {
				return nil, fmt.Errorf("line %d: extended linear record needs 2 data bytes, got %d", lineNum, count)
			}
			base = (uint32(data[0])<<8 | uint32(data[1])) << 16

		case RecordStartSegment, RecordStartLinear:
			// Entry-point records; the loader derives the entry from
			// the reset vector instead.

		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, typ)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if !sawEOF {
		return nil, fmt.Errorf("missing end-of-file record")
	}

	if records == 0 {
		return nil, fmt.Errorf("no data records found in file")
	}

	return img, nil
}

// parseRecord decodes one Intel HEX line into its fields and verifies
// the record checksum.
func parseRecord(line string) (count byte, addr uint16, typ byte, data []byte, err error) {
	if line[0] != ':' {
		return 0, 0, 0, nil, fmt.Errorf("record must start with ':'")
	}

	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return 0, 0, 0, nil, fmt.Errorf("invalid hex data: %w", err)
	}

	if len(raw) < minRecordBytes {
		return 0, 0, 0, nil, fmt.Errorf("record too short: got %d bytes, minimum is %d", len(raw), minRecordBytes)
	}

	count = raw[0]
	addr = uint16(raw[1])<<8 | uint16(raw[2]) // big-endian
	typ = raw[3]

	expectedLen := minRecordBytes + int(count)
	if len(raw) != expectedLen {
		return 0, 0, 0, nil, fmt.Errorf("record length mismatch: got %d bytes, expected %d for count %d",
			len(raw), expectedLen, count)
	}

	data = raw[4 : 4+count]

	// The byte sum of the whole record including the checksum is zero.
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		checksum := raw[len(raw)-1]
		return 0, 0, 0, nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X",
			checksum, checksum-sum)
	}

	return count, addr, typ, data, nil
}
