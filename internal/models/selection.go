package models

// StrikePosition locates a selected strike relative to the reference price.
type StrikePosition string

const (
	PositionAbove StrikePosition = "ABOVE"
	PositionBelow StrikePosition = "BELOW"
	PositionExact StrikePosition = "EXACT"
)

// SelectedStrike is one strike picked by the neighborhood selector, with its
// position relative to the reference and a rank strictly increasing with
// distance from it. Contracts holds at most one contract per option class.
type SelectedStrike struct {
	StrikePrice float64
	Position    StrikePosition
	Rank        int
	Contracts   []Contract
}

// Selection is the ordered result of a neighborhood selection for one
// reference point, ascending by strike price.
type Selection struct {
	Reference ReferencePoint
	Strikes   []SelectedStrike
	// StrikeShortfall counts how many strikes short of the requested
	// neighborhood size the catalog turned out to be.
	StrikeShortfall int
}

// ContractCount returns the total contract rows across all selected strikes.
func (s Selection) ContractCount() int {
	n := 0
	for _, st := range s.Strikes {
		n += len(st.Contracts)
	}
	return n
}
