// Package firmware provides parsing of Intel HEX files into a paged
// flash image.
//
// # Intel HEX Format
//
// Each line is one record, hex-encoded after a leading colon:
//
//	:llaaaatt[dd...]cc
//	  ll = data byte count
//	  aaaa = 16-bit load address (big-endian)
//	  tt = record type
//	  dd = data bytes
//	  cc = checksum (two's complement of the byte sum)
//
// Supported record types:
//
//	00  data
//	01  end of file
//	02  extended segment address (base = value * 16)
//	04  extended linear address (base = value << 16)
//	03  start segment address (ignored)
//	05  start linear address (ignored)
//
// # Usage
//
// Parse a file from disk:
//
//	img, err := firmware.Parse("blink.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, page := range img.Pages(64) {
//	    program(page.Number, page.Data)
//	}
//
// Parse from an io.Reader:
//
//	img, err := firmware.ParseReader(strings.NewReader(hexText))
//
// # Error Handling
//
// Parse returns detailed errors for invalid files: bad hex encoding,
// record checksum mismatches, truncated records, and a missing end-of-
// file record. Row errors include the line number.
package firmware
