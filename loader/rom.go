// Package loader provides ROM image loading for the emulated console.
//
// Images use a minimal raw container: a 16-byte header carrying the
// "CTRI" magic, the entry point, and the payload length, followed by the
// payload itself, which is mapped at the ROM base address.
package loader

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/ctrsim/ctrsim/mem"
)

// Magic identifies a raw ROM image.
const Magic = "CTRI"

// headerSize is the fixed image header length in bytes.
const headerSize = 16

// Program represents a parsed ROM image ready to run.
type Program struct {
	// EntryPoint is the address where execution begins.
	EntryPoint uint32
	// Payload is the ROM content, mapped at mem.ROMStart.
	Payload []byte
}

// Load reads and parses a ROM image file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading ROM image")
	}

	prog, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing ROM image %s", path)
	}
	return prog, nil
}

// Parse validates an image header and extracts the payload.
//
// Header layout (little-endian):
//
//	offset 0  magic "CTRI"
//	offset 4  entry point
//	offset 8  payload length in bytes
//	offset 12 reserved, must be zero
func Parse(data []byte) (*Program, error) {
	if len(data) < headerSize {
		return nil, errors.Errorf("image too short: %d bytes", len(data))
	}
	if string(data[:4]) != Magic {
		return nil, errors.Errorf("bad magic %q", data[:4])
	}

	entry := binary.LittleEndian.Uint32(data[4:8])
	payloadLen := binary.LittleEndian.Uint32(data[8:12])
	reserved := binary.LittleEndian.Uint32(data[12:16])

	if reserved != 0 {
		return nil, errors.Errorf("reserved header field is 0x%08X, want 0", reserved)
	}
	if int(payloadLen) != len(data)-headerSize {
		return nil, errors.Errorf(
			"payload length %d does not match image size %d",
			payloadLen, len(data)-headerSize)
	}
	if entry < mem.ROMStart || entry >= mem.ROMStart+payloadLen {
		return nil, errors.Errorf("entry point 0x%08X outside the ROM payload", entry)
	}

	return &Program{
		EntryPoint: entry,
		Payload:    data[headerSize:],
	}, nil
}
