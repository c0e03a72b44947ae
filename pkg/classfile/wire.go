package classfile

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format constants
// ---------------------------------------------------------------------------

// Magic is the magic number identifying a class file.
var Magic = [4]byte{'B', 'B', 'C', 'F'}

// Format version
// v1: initial format
// v2: typed annotation values, enum constants
// v3: bootstrap flag, method default values
const FormatVersion uint32 = 3

// Header size in bytes: magic(4) + version(4) + flags(4) + payload length(4)
const headerSize = 16

// cborEncMode uses canonical options so equal files encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("classfile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a file to its binary representation.
// The file is validated before encoding; a structurally broken file is a
// configuration error and never reaches the wire.
func Marshal(f *File) ([]byte, error) {
	if f.FormatVersion == 0 {
		f.FormatVersion = FormatVersion
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	payload, err := cborEncMode.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("classfile: marshal %s: %w", f.Name, err)
	}
	out := make([]byte, headerSize+len(payload))
	copy(out, Magic[:])
	binary.BigEndian.PutUint32(out[4:], f.FormatVersion)
	binary.BigEndian.PutUint32(out[8:], f.Flags)
	binary.BigEndian.PutUint32(out[12:], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out, nil
}

// Unmarshal deserializes a file from its binary representation.
func Unmarshal(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("classfile: truncated header: %d bytes", len(data))
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return nil, fmt.Errorf("classfile: bad magic %q", data[:4])
	}
	version := binary.BigEndian.Uint32(data[4:])
	if version == 0 || version > FormatVersion {
		return nil, fmt.Errorf("classfile: unsupported format version %d", version)
	}
	length := binary.BigEndian.Uint32(data[12:])
	if int(length) != len(data)-headerSize {
		return nil, fmt.Errorf("classfile: payload length %d does not match %d remaining bytes",
			length, len(data)-headerSize)
	}
	var f File
	if err := cbor.Unmarshal(data[headerSize:], &f); err != nil {
		return nil, fmt.Errorf("classfile: unmarshal: %w", err)
	}
	if f.FormatVersion != version {
		return nil, fmt.Errorf("classfile: header version %d disagrees with payload version %d",
			version, f.FormatVersion)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// IsClassFile reports whether data starts with the class file magic.
// It does not validate the remainder.
func IsClassFile(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == Magic[0] && data[1] == Magic[1] && data[2] == Magic[2] && data[3] == Magic[3]
}
