package comfoair

// Protocol commands used by the bridge.
//
// The PC requests data with a "get" command and the unit answers with
// the corresponding response command (request + 1).
const (
	// CmdGetVentilation requests the current ventilation levels.
	CmdGetVentilation uint16 = 0x00CD

	// CmdVentilation is the ventilation levels response. Data bytes 6
	// and 7 carry the exhaust and supply fan duty in percent, byte 8
	// the current level code (0=auto, 1=away, 2..4=low..high).
	CmdVentilation uint16 = 0x00CE

	// CmdGetTemperatures requests the temperature set.
	CmdGetTemperatures uint16 = 0x00D1

	// CmdTemperatures is the temperature response. Bytes 0..4 carry
	// comfort, outside, supply, return and exhaust temperatures, each
	// encoded as value/2 - 20 °C.
	CmdTemperatures uint16 = 0x00D2

	// CmdSetLevel sets the ventilation level. One data byte, 0x01..0x04.
	CmdSetLevel uint16 = 0x0099

	// CmdDisplay is the CC Ease display state broadcast (10 cell bytes).
	CmdDisplay uint16 = 0x003C
)

// Attribute identifies a decoded device value.
type Attribute string

// Known attributes.
const (
	AttrTempComfort    Attribute = "temp_comfort"
	AttrTempOutside    Attribute = "temp_outside"
	AttrTempSupply     Attribute = "temp_supply"
	AttrTempReturn     Attribute = "temp_return"
	AttrTempExhaust    Attribute = "temp_exhaust"
	AttrAirflowExhaust Attribute = "airflow_exhaust"
	AttrAirflowSupply  Attribute = "airflow_supply"
	AttrFanSpeed       Attribute = "fan_speed"
)

// Reading is a decoded attribute value extracted from a frame.
// Value is float64 for temperatures and int for duty/level attributes.
type Reading struct {
	Attribute Attribute
	Value     any
}

// attrSpec describes where an attribute lives in a response frame and
// how its byte is decoded.
type attrSpec struct {
	attr    Attribute
	command uint16
	offset  int
	decode  func(b byte) any
}

func decodeTemp(b byte) any {
	return float64(b)/2 - 20
}

func decodePercent(b byte) any {
	return int(b)
}

func decodeLevel(b byte) any {
	return int(b)
}

// attrTable lists all decodable attributes in a fixed order so that
// readings from one frame are always emitted in the same sequence.
var attrTable = []attrSpec{
	{AttrTempComfort, CmdTemperatures, 0, decodeTemp},
	{AttrTempOutside, CmdTemperatures, 1, decodeTemp},
	{AttrTempSupply, CmdTemperatures, 2, decodeTemp},
	{AttrTempReturn, CmdTemperatures, 3, decodeTemp},
	{AttrTempExhaust, CmdTemperatures, 4, decodeTemp},
	{AttrAirflowExhaust, CmdVentilation, 6, decodePercent},
	{AttrAirflowSupply, CmdVentilation, 7, decodePercent},
	{AttrFanSpeed, CmdVentilation, 8, decodeLevel},
}

// DecodeReadings extracts all known attribute values from a frame.
//
// Frames that carry no known attributes (or are too short for an
// attribute's offset) simply yield fewer readings; this is not an
// error, since unit firmware revisions vary in response length.
func DecodeReadings(f Frame) []Reading {
	var readings []Reading
	for _, spec := range attrTable {
		if spec.command != f.Command {
			continue
		}
		if spec.offset >= len(f.Data) {
			continue
		}
		readings = append(readings, Reading{
			Attribute: spec.attr,
			Value:     spec.decode(f.Data[spec.offset]),
		})
	}
	return readings
}
