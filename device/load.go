package device

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wonkystuff/audioboot/avr"
)

type profileFile struct {
	Name            string `toml:"name"`
	PageSize        int    `toml:"page_size"`
	FlashSize       uint32 `toml:"flash_size"`
	BootloaderStart uint32 `toml:"bootloader_start"`
	EepromSize      int    `toml:"eeprom_size"`
}

// Load reads a device profile from a TOML file. Fields the file does
// not define keep their ATtiny85 defaults, so a file can override just
// the loader address or just the geometry.
//
// Example file:
//
//	name = "attiny84"
//	flash_size = 8192
//	bootloader_start = 0x1C00
func Load(path string) (Profile, error) {
	p := ATtiny85()

	var raw profileFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("load device profile: %w", err)
	}

	if meta.IsDefined("name") {
		name := strings.TrimSpace(raw.Name)
		if name != "" {
			p.Name = name
		}
	}

	if meta.IsDefined("page_size") {
		p.PageSize = raw.PageSize
	}

	if meta.IsDefined("flash_size") {
		p.FlashSize = avr.ByteAddr(raw.FlashSize)
	}

	if meta.IsDefined("bootloader_start") {
		p.BootloaderStart = avr.ByteAddr(raw.BootloaderStart)
	}

	if meta.IsDefined("eeprom_size") {
		p.EepromSize = raw.EepromSize
	}

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("device profile %s: %w", path, err)
	}

	return p, nil
}
