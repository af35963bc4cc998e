package firmware

import "sort"

// Image is firmware laid out in flash address space. Unwritten locations
// read as erased flash (0xFF).
type Image struct {
	data map[uint32]byte
	end  uint32
}

// Page is one flash page of an image, padded to the page size with the
// erased-flash value.
type Page struct {
	// Number is the page index (byte address / page size)
	Number int

	// Data is exactly one page of bytes
	Data []byte
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{data: make(map[uint32]byte)}
}

// FromBinary builds an image from a flat byte slice loaded at address 0.
func FromBinary(raw []byte) *Image {
	img := NewImage()
	for i, b := range raw {
		img.Set(uint32(i), b)
	}
	return img
}

// Set writes one byte at the given flash byte address.
func (img *Image) Set(addr uint32, b byte) {
	img.data[addr] = b
	if addr+1 > img.end {
		img.end = addr + 1
	}
}

// ReadByte returns the byte at addr, or 0xFF if the image does not cover
// it.
func (img *Image) ReadByte(addr uint32) byte {
	if b, ok := img.data[addr]; ok {
		return b
	}
	return 0xFF
}

// ReadWord returns the little-endian 16-bit word at addr.
func (img *Image) ReadWord(addr uint32) uint16 {
	return uint16(img.ReadByte(addr)) | uint16(img.ReadByte(addr+1))<<8
}

// Size returns one past the highest written address, or 0 for an empty
// image.
func (img *Image) Size() uint32 {
	return img.end
}

// Pages splits the image into ordered pages of pageSize bytes. Pages the
// image does not touch are omitted; touched pages are padded with 0xFF.
func (img *Image) Pages(pageSize int) []Page {
	touched := make(map[int]bool)
	for addr := range img.data {
		touched[int(addr)/pageSize] = true
	}

	numbers := make([]int, 0, len(touched))
	for n := range touched {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	pages := make([]Page, 0, len(numbers))
	for _, n := range numbers {
		p := Page{Number: n, Data: make([]byte, pageSize)}
		base := uint32(n * pageSize)
		for i := 0; i < pageSize; i++ {
			p.Data[i] = img.ReadByte(base + uint32(i))
		}
		pages = append(pages, p)
	}
	return pages
}
