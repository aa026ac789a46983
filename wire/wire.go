// Package wire implements the VKB2 datagram format: a fixed-size
// little-endian frame carrying one device snapshot plus a 16-bit sequence
// number. Two frame variants exist; they share magic, version and payload
// layout and differ only in the header:
//
//	single-device (42 bytes)        multi-device (43 bytes)
//	0..4   "VKB2"                   0..4   "VKB2"
//	4      version = 2              4      version = 2
//	5      reserved                 5      device id
//	6..8   seq u16 LE               6      reserved
//	                                7..9   seq u16 LE
//	then, in both:
//	axes[8] u16 LE (0..=32768), hat_x i8, hat_y i8, buttons [16]byte
//
// The decoder distinguishes the variants by frame length.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/vkbtools/vkbridge/joystick"
)

const (
	// Version is the protocol version carried in every frame.
	Version = 2

	// FrameLen is the length of a single-device frame.
	FrameLen = 42
	// MultiFrameLen is the length of a multi-device frame.
	MultiFrameLen = 43
)

// Magic is the 4-byte frame preamble.
var Magic = [4]byte{'V', 'K', 'B', '2'}

// Decode rejection errors. These are expected on a lossy transport and are
// counted, never fatal.
var (
	ErrTooShort   = errors.New("wire: frame too short")
	ErrBadMagic   = errors.New("wire: bad magic")
	ErrBadVersion = errors.New("wire: unsupported version")
)

// Packet is the decoded form of a frame. DeviceID is 0 for single-device
// frames, which carry no id byte.
type Packet struct {
	DeviceID uint8
	Seq      uint16
	Axes     [joystick.NumAxes]uint16
	HatX     int8
	HatY     int8
	Buttons  [joystick.ButtonBytes]byte
}

// Encode serializes a snapshot into a single-device frame. The axes are
// normalized through the per-device ranges; encoding cannot fail.
func Encode(buf *[FrameLen]byte, seq uint16, snap joystick.Snapshot, ranges [joystick.NumAxes]joystick.AxisRange) {
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	buf[5] = 0
	binary.LittleEndian.PutUint16(buf[6:8], seq)
	encodePayload(buf[8:], snap, ranges)
}

// EncodeMulti serializes a snapshot into a multi-device frame tagged with
// the given device id.
func EncodeMulti(buf *[MultiFrameLen]byte, seq uint16, deviceID uint8, snap joystick.Snapshot, ranges [joystick.NumAxes]joystick.AxisRange) {
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	buf[5] = deviceID
	buf[6] = 0
	binary.LittleEndian.PutUint16(buf[7:9], seq)
	encodePayload(buf[9:], snap, ranges)
}

func encodePayload(b []byte, snap joystick.Snapshot, ranges [joystick.NumAxes]joystick.AxisRange) {
	off := 0
	for i := 0; i < joystick.NumAxes; i++ {
		v := joystick.Normalize(snap.AxesRaw[i], ranges[i])
		binary.LittleEndian.PutUint16(b[off:off+2], v)
		off += 2
	}
	b[off] = uint8(snap.HatX)
	b[off+1] = uint8(snap.HatY)
	off += 2
	copy(b[off:off+joystick.ButtonBytes], snap.Buttons[:])
}

// Decode validates and parses a frame. Validation order: length, magic,
// version. A 43-byte frame yields the device id from its header; a 42-byte
// frame yields device id 0.
func Decode(data []byte) (Packet, error) {
	var p Packet
	if len(data) != FrameLen && len(data) != MultiFrameLen {
		return p, ErrTooShort
	}
	if [4]byte(data[0:4]) != Magic {
		return p, ErrBadMagic
	}
	if data[4] != Version {
		return p, ErrBadVersion
	}

	off := 6
	if len(data) == MultiFrameLen {
		p.DeviceID = data[5]
		off = 7
	}
	p.Seq = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2

	for i := 0; i < joystick.NumAxes; i++ {
		p.Axes[i] = binary.LittleEndian.Uint16(data[off : off+2])
		off += 2
	}
	p.HatX = int8(data[off])
	p.HatY = int8(data[off+1])
	off += 2
	copy(p.Buttons[:], data[off:off+joystick.ButtonBytes])
	return p, nil
}
