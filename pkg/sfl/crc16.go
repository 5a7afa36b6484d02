package sfl

const (
	crc16Poly uint16 = 0x1021
	crc16Init uint16 = 0xffff
)

var crc16Table = makeCRC16Table()

func makeCRC16Table() (table [256]uint16) {
	for i := range table {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crc16Poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return
}

// CRC16 computes CRC-16/CCITT-FALSE of data.
func CRC16(data []byte) uint16 {
	return updateCRC16(crc16Init, data...)
}

func updateCRC16(crc uint16, data ...byte) uint16 {
	for _, b := range data {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}
