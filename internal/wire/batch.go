package wire

// SlotsPerBatch is the number of buckets the server broadcasts per
// batch, matching the authored slot-duration/slots-stored calibration.
const SlotsPerBatch = 16

// SerializeQueue encodes a sequence of buckets as
// repeat(len(buckets)) { u8(count) || count * 10-byte IndexedPacket }.
func SerializeQueue(buckets [][]IndexedPacket) []byte {
	out := make([]byte, 0, len(buckets)*(1+8*IndexedPacketSize))
	for _, bucket := range buckets {
		out = append(out, byte(len(bucket)))
		for _, p := range bucket {
			b := p.ToBytes()
			out = append(out, b[:]...)
		}
	}
	return out
}

// DeserializeQueue parses as many complete buckets as `bytes` holds.
// When a bucket's count header is present but the buffer ends mid-
// bucket, the parser rewinds to that header byte, copies the tail from
// there to the front of buf, and reports its length as residual — the
// caller keeps buf[:residual] and appends the next read there. This is the
// split-frame resumption contract the streaming game-packet transport
// relies on.
func DeserializeQueue(buf []byte) (buckets [][]IndexedPacket, residual int) {
	ind := 0
	for ind < len(buf) {
		count := int(buf[ind])
		frameLen := count * IndexedPacketSize

		if ind+1+frameLen <= len(buf) {
			bucket := make([]IndexedPacket, 0, count)
			start := ind + 1
			for k := 0; k < count; k++ {
				packetStart := start + k*IndexedPacketSize
				bucket = append(bucket, IndexedPacketFromBytes(buf[packetStart:packetStart+IndexedPacketSize]))
			}
			buckets = append(buckets, bucket)
			ind = start + frameLen
		} else {
			copy(buf, buf[ind:])
			residual = len(buf) - ind
			return buckets, residual
		}
	}
	return buckets, 0
}
