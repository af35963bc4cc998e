package frame

import "github.com/sigurn/crc16"

var checksumTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// ChecksumOf computes the CRC-16/CCITT-FALSE over the command, page
// number, length and payload fields of a frame. The checksum field
// itself is excluded.
//
// The loader never verifies this value; see the package documentation.
func ChecksumOf(f Frame) uint16 {
	crc := crc16.Init(checksumTable)
	crc = crc16.Update(crc, f[:PosChecksumLow], checksumTable)
	crc = crc16.Update(crc, f.Payload(), checksumTable)
	return crc16.Complete(crc, checksumTable)
}

// fillChecksum writes the checksum of f into its checksum field.
func fillChecksum(f Frame) {
	sum := ChecksumOf(f)
	f[PosChecksumLow] = byte(sum)
	f[PosChecksumHigh] = byte(sum >> 8)
}
