// SPDX-License-Identifier: BSD-3-Clause

// Package pckt defines the packet contract the core operates on (spec §6):
// a getter/setter interface over a handful of attributes. The mapping of
// those attributes onto wire bytes is deliberately out of scope for the
// core and left to an adaptation point — defaultPacket below is one such
// adaptation, sufficient for tests and for applications that have no
// stronger opinion about byte layout.
package pckt

// Kind distinguishes a telecommand packet from a telemetry report packet.
type Kind int

const (
	Cmd Kind = iota
	Rep
)

func (k Kind) String() string {
	if k == Cmd {
		return "Cmd"
	}
	return "Rep"
}

// AckLevels carries the four acknowledgement flags a TC packet's sender can
// request (spec §4.5): whether the sender wants an acceptance, start,
// progress or termination verification report.
type AckLevels struct {
	Acc      bool
	Start    bool
	Progress bool
	Term     bool
}

// Packet is a non-owning handle to a byte buffer owned by a Pool. All
// access to packet attributes goes through this interface; the core never
// reaches into the underlying buffer itself.
type Packet interface {
	Length() int
	SetLength(int)

	Kind() Kind
	SetKind(Kind)

	ServType() uint16
	SetServType(uint16)

	ServSubType() uint16
	SetServSubType(uint16)

	Discriminant() uint16
	SetDiscriminant(uint16)

	Src() uint16
	SetSrc(uint16)

	Dest() uint16
	SetDest(uint16)

	Group() uint32
	SetGroup(uint32)

	SeqCnt() uint16
	SetSeqCnt(uint16)

	TimeStamp() int64
	SetTimeStamp(int64)

	CmdRepID() uint64
	SetCmdRepID(uint64)

	AckLevels() AckLevels
	SetAckLevels(AckLevels)

	ParamArea() []byte
	SetParamArea([]byte)

	// Buf returns the raw backing buffer; used only by Pool bookkeeping
	// and by a transport collaborator serialising the packet to the wire.
	Buf() []byte
}

// Factory adapts a raw byte slice received off a transport into a Packet,
// and the reverse for sending. InStream/OutStream hold a Factory rather
// than assuming NewDefault, so an application supplying its own wire
// format only has to implement this function, not touch pkg/stream.
type Factory func(buf []byte) Packet
