package coolproto

// CRC-8 with polynomial 0x07, MSB first, as used by the Hydro Platinum
// framing. A received frame is valid when the checksum over payload
// plus trailing CRC byte folds to zero.

var crc8Table [256]uint8

func init() {
	for i := range crc8Table {
		crc := uint8(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
		crc8Table[i] = crc
	}
}

func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}
