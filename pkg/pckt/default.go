// SPDX-License-Identifier: BSD-3-Clause

package pckt

// header layout of the default adaptation. Applications with a stronger
// opinion about wire format implement Packet themselves; nothing in the
// core depends on this layout.
const headerLen = 32

// MinBufLen is the smallest buffer NewDefault accepts: the fixed header
// with no parameter area.
const MinBufLen = headerLen

// defaultPacket is the out-of-the-box Packet adaptation: a fixed-size
// header holding the attributes plus a variable parameter area, all backed
// by one contiguous byte slice owned by a Pool.
type defaultPacket struct {
	buf       []byte
	paramArea []byte
}

// NewDefault wraps buf as a Packet. buf must be at least headerLen bytes
// and is retained, not copied; callers obtain buf from a Pool.
func NewDefault(buf []byte) Packet {
	return &defaultPacket{buf: buf}
}

func (p *defaultPacket) Buf() []byte { return p.buf }

func (p *defaultPacket) Length() int      { return int(be16(p.buf[0:2])) }
func (p *defaultPacket) SetLength(n int)  { putBE16(p.buf[0:2], uint16(n)) }

func (p *defaultPacket) Kind() Kind {
	if p.buf[2] == 0 {
		return Cmd
	}
	return Rep
}

func (p *defaultPacket) SetKind(k Kind) {
	if k == Cmd {
		p.buf[2] = 0
	} else {
		p.buf[2] = 1
	}
}

func (p *defaultPacket) ServType() uint16       { return be16(p.buf[4:6]) }
func (p *defaultPacket) SetServType(v uint16)   { putBE16(p.buf[4:6], v) }
func (p *defaultPacket) ServSubType() uint16    { return be16(p.buf[6:8]) }
func (p *defaultPacket) SetServSubType(v uint16) { putBE16(p.buf[6:8], v) }
func (p *defaultPacket) Discriminant() uint16   { return be16(p.buf[8:10]) }
func (p *defaultPacket) SetDiscriminant(v uint16) { putBE16(p.buf[8:10], v) }
func (p *defaultPacket) Src() uint16            { return be16(p.buf[10:12]) }
func (p *defaultPacket) SetSrc(v uint16)        { putBE16(p.buf[10:12], v) }
func (p *defaultPacket) Dest() uint16           { return be16(p.buf[12:14]) }
func (p *defaultPacket) SetDest(v uint16)       { putBE16(p.buf[12:14], v) }
func (p *defaultPacket) Group() uint32          { return be32(p.buf[14:18]) }
func (p *defaultPacket) SetGroup(v uint32)      { putBE32(p.buf[14:18], v) }
func (p *defaultPacket) SeqCnt() uint16         { return be16(p.buf[18:20]) }
func (p *defaultPacket) SetSeqCnt(v uint16)     { putBE16(p.buf[18:20], v) }
func (p *defaultPacket) TimeStamp() int64       { return int64(be32(p.buf[20:24]))<<32 | int64(be32(p.buf[24:28])) }

func (p *defaultPacket) SetTimeStamp(v int64) {
	putBE32(p.buf[20:24], uint32(v>>32))
	putBE32(p.buf[24:28], uint32(v))
}

func (p *defaultPacket) CmdRepID() uint64 {
	return uint64(be32(p.buf[28:32]))
}

func (p *defaultPacket) SetCmdRepID(v uint64) {
	putBE32(p.buf[28:32], uint32(v))
}

func (p *defaultPacket) AckLevels() AckLevels {
	b := p.buf[3]
	return AckLevels{
		Acc:      b&0x1 != 0,
		Start:    b&0x2 != 0,
		Progress: b&0x4 != 0,
		Term:     b&0x8 != 0,
	}
}

func (p *defaultPacket) SetAckLevels(a AckLevels) {
	var b byte
	if a.Acc {
		b |= 0x1
	}
	if a.Start {
		b |= 0x2
	}
	if a.Progress {
		b |= 0x4
	}
	if a.Term {
		b |= 0x8
	}
	p.buf[3] = b
}

func (p *defaultPacket) ParamArea() []byte { return p.buf[headerLen:p.Length()] }

func (p *defaultPacket) SetParamArea(data []byte) {
	n := copy(p.buf[headerLen:], data)
	p.SetLength(headerLen + n)
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func putBE16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
