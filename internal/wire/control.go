package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// ClientPacket is the tag union a client sends during the lobby phase.
type ClientPacket struct {
	Kind ClientPacketKind `json:"kind"`
	Name string           `json:"name,omitempty"`
}

type ClientPacketKind string

const (
	ClientSetName    ClientPacketKind = "set_name"
	ClientRequestMap ClientPacketKind = "request_map"
	ClientOk         ClientPacketKind = "ok"
)

// ServerPacket is the tag union the server sends during the lobby phase.
type ServerPacket struct {
	Kind ServerPacketKind `json:"kind"`

	MapName string `json:"map_name,omitempty"`

	FileName     string `json:"file_name,omitempty"`
	FileContents []byte `json:"file_contents,omitempty"`

	Players []RosterEntry `json:"players,omitempty"`

	ID uint8 `json:"id,omitempty"`
}

type ServerPacketKind string

const (
	ServerSetMap     ServerPacketKind = "set_map"
	ServerCreateFile ServerPacketKind = "create_file"
	ServerSetPlayers ServerPacketKind = "set_players"
	ServerSetID      ServerPacketKind = "set_id"
	ServerStartGame  ServerPacketKind = "start_game"
)

// RosterEntry is one (id, name) pair in a SetPlayers announcement.
type RosterEntry struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// maxControlPacketBytes bounds an in-flight lobby/control frame so a
// misbehaving or malicious peer cannot force an unbounded allocation
// before the length prefix has even been validated.
const maxControlPacketBytes = 64 << 20 // 64 MiB, generous for the largest texture/map asset

// WriteControlPacket frames v as JSON behind a 4-byte big-endian length
// prefix and writes it to w. This is the Go equivalent of the original's
// postcard-framed lobby packets: the body codec is JSON here (small,
// low-frequency lobby traffic makes self-describing encoding cheap and
// debuggable), the framing discipline — length prefix, then body — is
// unchanged.
func WriteControlPacket(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal control packet: %w", err)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write control packet header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: write control packet body: %w", err)
	}
	return nil
}

// ReadControlPacket reads one length-prefixed control frame from r and
// unmarshals it into v.
func ReadControlPacket(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("wire: read control packet header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxControlPacketBytes {
		return fmt.Errorf("wire: control packet of %d bytes exceeds the %d byte limit", length, maxControlPacketBytes)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("wire: read control packet body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("wire: unmarshal control packet: %w", err)
	}
	return nil
}
