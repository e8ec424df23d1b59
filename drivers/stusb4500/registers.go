package stusb4500

// Address is the fixed 7-bit address.
const Address = 0x28

const (
	regDPMPDONumb = 0x70
	regPDOBase    = 0x85 // three little-endian 32-bit words
	regRDOStatus  = 0x91
	regRWBuffer   = 0x53

	regPassword = 0x95
	password    = 0x47

	regCtrl0  = 0x96
	ctrl0PWR  = 0x80
	ctrl0RSTN = 0x40
	ctrl0REQ  = 0x10
	ctrl0Sect = 0x07

	regCtrl1    = 0x97
	ctrl1SER    = 0xF8
	ctrl1Opcode = 0x07
)

// FTP opcodes.
const (
	opRead           = 0x00
	opWritePL        = 0x01
	opWriteSER       = 0x02
	opEraseSector    = 0x05
	opProgSector     = 0x06
	opSoftProgSector = 0x07
)

const (
	sector0 = 0x01
	sector1 = 0x02
	sector2 = 0x04
	sector3 = 0x08
	sector4 = 0x10

	allSectors = sector0 | sector1 | sector2 | sector3 | sector4
)

// PDO word fields.
const (
	pdoCurrentMask = 0x3FF
	pdoVoltageMask = 0x3FF << 10
)
