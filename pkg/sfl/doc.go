// Package sfl implements the serial frame loader: the protocol the BIOS uses
// to receive an executable image over a UART and jump to it.
package sfl

// The loader is driven by the sender (a host tool). The receiver never
// talks first; it answers every complete frame with exactly one byte:
// ACK when the frame was applied, or a NAK carrying the rejection kind.
// The sender retransmits the same frame after a NAK or when no reply
// arrives, so every effect must be idempotent.
//
// Frame layout (all multi-byte fields big-endian):
//
//	CMD(1) LEN(1) PAYLOAD(LEN) CRC(2)
//
// CRC is CRC-16/CCITT-FALSE over CMD, LEN and PAYLOAD.
//
//	Abort  0x00  no payload
//	Write  0x01  ADDR(4) DATA(0..251)
//	Jump   0x02  ADDR(4)
//	Ping   0x03  no payload
//
// Replies: 'K' ACK, 'C' checksum mismatch, 'U' unknown command,
// 'M' malformed payload, 'T' frame incomplete at byte timeout,
// 'E' rejected (out of bounds, or jump before any ACK).
