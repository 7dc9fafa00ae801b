package enums

type VehicleType string

const (
	VehicleTypeBicycle VehicleType = "bicycle"
	VehicleTypeScooter VehicleType = "scooter"
	VehicleTypeBike    VehicleType = "motorbike"
	VehicleTypeCar     VehicleType = "car"
)

func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeBicycle, VehicleTypeScooter, VehicleTypeBike, VehicleTypeCar:
		return true
	}
	return false
}

func (v VehicleType) String() string { return string(v) }

func ParseVehicleType(value string) (VehicleType, bool) {
	vt := VehicleType(value)
	return vt, vt.IsValid()
}
