// Package wire implements the fixed-size binary game packet protocol,
// its batching/timing primitives, and the length-prefixed lobby control
// packets. Everything here is pure encode/decode plus the TimedQueue
// bucketing algorithm — no networking I/O lives in this package.
package wire

import (
	"encoding/binary"
	"math"
)

// GamePacketSize is the fixed wire size of a single GamePacket: one tag
// byte plus an 8-byte payload.
const GamePacketSize = 9

// IndexedPacketSize is the wire size of an IndexedPacket: a 1-byte
// sender id plus a GamePacket.
const IndexedPacketSize = 1 + GamePacketSize

// Tag discriminates GamePacket variants.
type Tag uint8

const (
	TagNone Tag = iota
	TagSpawn
	TagMotor
	TagMuzzle
	TagFire
	TagThrust
	TagDash
	TagResetMuzzle
)

// GamePacket is the fixed 9-byte wire message clients and the server
// exchange during the game phase. Payload fields are interpreted per Tag;
// unused fields for a given tag are zero on the wire.
type GamePacket struct {
	Tag Tag

	// Spawn
	X, Y float32

	// Motor
	Index uint32
	Acc   float32

	// Fire
	Bullet uint8

	// Thrust
	Left, Right float32

	// Dash
	Coeff float32
}

// ToBytes encodes p into its fixed 9-byte wire form: big-endian tag byte
// followed by an 8-byte payload whose layout is selected by Tag.
func (p GamePacket) ToBytes() [GamePacketSize]byte {
	var buf [GamePacketSize]byte
	buf[0] = byte(p.Tag)
	payload := buf[1:]

	switch p.Tag {
	case TagSpawn, TagMuzzle:
		putF32(payload[0:4], p.X)
		putF32(payload[4:8], p.Y)
	case TagMotor:
		binary.BigEndian.PutUint32(payload[0:4], p.Index)
		putF32(payload[4:8], p.Acc)
	case TagFire:
		payload[0] = p.Bullet
	case TagThrust:
		putF32(payload[0:4], p.Left)
		putF32(payload[4:8], p.Right)
	case TagDash:
		putF32(payload[0:4], p.Coeff)
	case TagResetMuzzle, TagNone:
		// zeros
	}

	return buf
}

// FromBytes decodes a 9-byte wire frame into a GamePacket. An
// unrecognized tag decodes to TagNone rather than erroring — unknown
// tags on the wire are downgraded, never fatal (the caller is expected
// to log a warning when OK is false).
func FromBytes(b [GamePacketSize]byte) (GamePacket, bool) {
	tag := Tag(b[0])
	payload := b[1:]

	switch tag {
	case TagNone:
		return GamePacket{Tag: TagNone}, true
	case TagSpawn:
		return GamePacket{Tag: tag, X: getF32(payload[0:4]), Y: getF32(payload[4:8])}, true
	case TagMuzzle:
		return GamePacket{Tag: tag, X: getF32(payload[0:4]), Y: getF32(payload[4:8])}, true
	case TagMotor:
		return GamePacket{Tag: tag, Index: binary.BigEndian.Uint32(payload[0:4]), Acc: getF32(payload[4:8])}, true
	case TagFire:
		return GamePacket{Tag: tag, Bullet: payload[0]}, true
	case TagThrust:
		return GamePacket{Tag: tag, Left: getF32(payload[0:4]), Right: getF32(payload[4:8])}, true
	case TagDash:
		return GamePacket{Tag: tag, Coeff: getF32(payload[0:4])}, true
	case TagResetMuzzle:
		return GamePacket{Tag: tag}, true
	default:
		return GamePacket{Tag: TagNone}, false
	}
}

// IndexedPacket pairs a sender id with its GamePacket contents. Wire
// form is sender_id || GamePacket bytes, 10 bytes total.
type IndexedPacket struct {
	ID       uint8
	Contents GamePacket
}

func (ip IndexedPacket) ToBytes() [IndexedPacketSize]byte {
	var buf [IndexedPacketSize]byte
	buf[0] = ip.ID
	contents := ip.Contents.ToBytes()
	copy(buf[1:], contents[:])
	return buf
}

func IndexedPacketFromBytes(b []byte) IndexedPacket {
	var payload [GamePacketSize]byte
	copy(payload[:], b[1:1+GamePacketSize])
	gp, _ := FromBytes(payload)
	return IndexedPacket{ID: b[0], Contents: gp}
}

func putF32(dst []byte, v float32) {
	binary.BigEndian.PutUint32(dst, math.Float32bits(v))
}

func getF32(src []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(src))
}
