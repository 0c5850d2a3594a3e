package register

// Address is an offset into the sensor register map.
type Address = byte

// CommandBit marks a transmitted byte as a register address rather than data.
const CommandBit byte = 0x80

// MaxAddress is the last addressable register.
const MaxAddress Address = 0x1F

const (
	Enable  Address = 0x00
	ATime   Address = 0x01
	Control Address = 0x0F
	ID      Address = 0x12
	CDataL  Address = 0x14
	CDataH  Address = 0x15
	RDataL  Address = 0x16
	RDataH  Address = 0x17
	GDataL  Address = 0x18
	GDataH  Address = 0x19
	BDataL  Address = 0x1A
	BDataH  Address = 0x1B
)

// ENABLE register bits
const (
	EnablePON  byte = 0x01
	EnableAEN  byte = 0x02
	EnableWEN  byte = 0x08
	EnableAIEN byte = 0x10
)

// Command returns the byte put on the wire to select register addr.
func Command(addr Address) byte {
	return CommandBit | addr
}
