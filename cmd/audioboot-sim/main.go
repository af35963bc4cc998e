// Command audioboot-sim is an interactive console around a simulated
// part running the resident audio bootloader. Firmware images are
// flashed through the real encode and receive chain, and the simulated
// flash, EEPROM and entry pointer can be inspected between runs.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/rs/zerolog/log"

	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/device"
	"github.com/wonkystuff/audioboot/firmware"
	"github.com/wonkystuff/audioboot/flasher"
	"github.com/wonkystuff/audioboot/internal/logging"
	"github.com/wonkystuff/audioboot/sim"
)

const runTimeout = time.Minute

// console holds the persistent state behind the shell commands.
type console struct {
	profile device.Profile
	dev     *sim.Device
	session *flasher.Session
	img     *firmware.Image
	imgPath string
	entry   avr.WordAddr
	ranOnce bool
}

func main() {
	var (
		profilePath = flag.String("profile", "", "TOML device profile (default: ATtiny85)")
		level       = flag.String("level", "warn", "log level")
	)
	flag.Parse()

	logger := logging.Init("audioboot-sim", *level)

	profile := device.ATtiny85()
	if *profilePath != "" {
		var err error
		profile, err = device.Load(*profilePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *profilePath).Msg("failed to load device profile")
		}
	}

	con := &console{
		profile: profile,
		dev:     sim.New(profile),
		session: flasher.New(profile,
			flasher.WithLogger(logging.NewBootLogger(logger)),
		),
	}

	shell := ishell.New()
	shell.Println("audioboot simulator,", profile.Name)
	shell.SetPrompt(profile.Name + " > ")

	shell.AddCmd(&ishell.Cmd{
		Name:    "load",
		Aliases: []string{"l"},
		Help:    "FILE.hex  load a firmware image",
		Func:    con.cmdLoad,
	})
	shell.AddCmd(&ishell.Cmd{
		Name:    "flash",
		Aliases: []string{"f"},
		Help:    "program the loaded image through the audio chain",
		Func:    con.cmdFlash,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "dump",
		Help: "PAGE  print one flash page",
		Func: con.cmdDump,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "eeprom",
		Help: "ADDR [LEN]  print eeprom bytes",
		Func: con.cmdEeprom,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "eewrite",
		Help: "PAGE HEXBYTES  write eeprom through the audio chain",
		Func: con.cmdEewrite,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "entry",
		Help: "show the stored application entry",
		Func: con.cmdEntry,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "power-cycle the part (flash and eeprom survive)",
		Func: con.cmdReset,
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "profile",
		Help: "show the device geometry",
		Func: con.cmdProfile,
	})

	if args := flag.Args(); len(args) > 0 {
		if err := shell.Process(args...); err != nil {
			log.Fatal().Err(err).Msg("command failed")
		}
		return
	}
	shell.Run()
}

func (con *console) cmdLoad(c *ishell.Context) {
	if len(c.Args) != 1 {
		c.Err(fmt.Errorf("usage: load FILE.hex"))
		return
	}
	img, err := firmware.Parse(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	con.img = img
	con.imgPath = c.Args[0]
	c.Printf("%s: %d bytes, %d pages\n",
		c.Args[0], img.Size(), len(img.Pages(con.profile.PageSize)))
}

func (con *console) cmdFlash(c *ishell.Context) {
	if con.img == nil {
		c.Err(fmt.Errorf("no image loaded, use: load FILE.hex"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	entry, err := con.session.Flash(ctx, con.img, con.dev)
	if err != nil {
		c.Err(err)
		return
	}
	con.entry = entry
	con.ranOnce = true
	c.Printf("flashed %s in %s, handed off to word %#04x\n",
		con.imgPath, time.Since(start).Round(time.Millisecond), uint32(entry))
}

func (con *console) cmdDump(c *ishell.Context) {
	if len(c.Args) != 1 {
		c.Err(fmt.Errorf("usage: dump PAGE"))
		return
	}
	page, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(fmt.Errorf("bad page %q", c.Args[0]))
		return
	}
	pages := int(con.profile.FlashSize) / con.profile.PageSize
	if page < 0 || page >= pages {
		c.Err(fmt.Errorf("page %d out of range 0-%d", page, pages-1))
		return
	}

	base := avr.ByteAddr(page * con.profile.PageSize)
	data := con.dev.FlashBytes(base, con.profile.PageSize)
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		c.Printf("%04x: % x\n", int(base)+off, data[off:end])
	}
}

func (con *console) cmdEeprom(c *ishell.Context) {
	if len(c.Args) < 1 || len(c.Args) > 2 {
		c.Err(fmt.Errorf("usage: eeprom ADDR [LEN]"))
		return
	}
	addr, err := strconv.Atoi(c.Args[0])
	if err != nil || addr < 0 || addr >= con.profile.EepromSize {
		c.Err(fmt.Errorf("bad address %q", c.Args[0]))
		return
	}
	length := 64
	if len(c.Args) == 2 {
		if length, err = strconv.Atoi(c.Args[1]); err != nil || length <= 0 {
			c.Err(fmt.Errorf("bad length %q", c.Args[1]))
			return
		}
	}
	if addr+length > con.profile.EepromSize {
		length = con.profile.EepromSize - addr
	}

	data := con.dev.EepromBytes(addr, length)
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		c.Printf("%04x: % x\n", addr+off, data[off:end])
	}
}

func (con *console) cmdEewrite(c *ishell.Context) {
	if len(c.Args) != 2 {
		c.Err(fmt.Errorf("usage: eewrite PAGE HEXBYTES"))
		return
	}
	page, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(fmt.Errorf("bad page %q", c.Args[0]))
		return
	}
	data, err := hex.DecodeString(c.Args[1])
	if err != nil {
		c.Err(fmt.Errorf("bad hex bytes: %v", err))
		return
	}
	if !con.ranOnce {
		c.Println("note: the loader only hands off after a flash; this will wait for the timeout otherwise")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	entry, err := con.session.WriteEEPROM(ctx, con.dev, page, data)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("wrote %d bytes at page %d, handed off to word %#04x\n",
		len(data), page, uint32(entry))
}

func (con *console) cmdEntry(c *ishell.Context) {
	w := con.dev.FlashWord(con.profile.PersistAddr())
	switch w {
	case 0:
		c.Println("persist word: 0 (nothing stored, loader stays resident)")
	case 0xFFFF:
		c.Println("persist word: 0xffff (erased)")
	default:
		c.Printf("persist word: %#04x\n", w)
	}
	if con.ranOnce {
		c.Printf("last handoff: word %#04x\n", uint32(con.entry))
	}
}

func (con *console) cmdReset(c *ishell.Context) {
	con.dev.Reset()
	con.ranOnce = false
	con.entry = 0
	c.Println("part power-cycled")
}

func (con *console) cmdProfile(c *ishell.Context) {
	p := con.profile
	c.Printf("name:             %s\n", p.Name)
	c.Printf("flash:            %d bytes, %d byte pages\n", p.FlashSize, p.PageSize)
	c.Printf("loader start:     %#04x (page %d)\n", uint32(p.BootloaderStart), p.AppFlashPages())
	c.Printf("persist word:     %#04x\n", uint32(p.PersistAddr()))
	c.Printf("app flash:        %d pages\n", p.AppFlashPages())
	c.Printf("eeprom:           %d bytes\n", p.EepromSize)
}
