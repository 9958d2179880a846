package tariff

// Period is a time-of-use tariff window.
type Period string

const (
	PeriodPeak         Period = "ponta"
	PeriodOffPeak      Period = "fora_ponta"
	PeriodIntermediate Period = "intermediario"
	PeriodReserved     Period = "reservado"
	PeriodSingle       Period = "unico"
)

// Periods lists every known period in invoice display order.
var Periods = []Period{PeriodPeak, PeriodIntermediate, PeriodOffPeak, PeriodReserved, PeriodSingle}

// Valid reports whether the period is known.
func (p Period) Valid() bool {
	switch p {
	case PeriodPeak, PeriodOffPeak, PeriodIntermediate, PeriodReserved, PeriodSingle:
		return true
	default:
		return false
	}
}

// Group is the tariff group of a consumer unit.
type Group string

const (
	GroupA Group = "A"
	GroupB Group = "B"
)

// Valid reports whether the group is known.
func (g Group) Valid() bool {
	return g == GroupA || g == GroupB
}

// AlertColor is the price-alert (bandeira) signal of the cycle.
type AlertColor string

const (
	AlertGreen  AlertColor = "verde"
	AlertYellow AlertColor = "amarela"
	AlertRed1   AlertColor = "vermelha1"
	AlertRed2   AlertColor = "vermelha2"
)

// Valid reports whether the color is one of the four published signals.
func (c AlertColor) Valid() bool {
	switch c {
	case AlertGreen, AlertYellow, AlertRed1, AlertRed2:
		return true
	default:
		return false
	}
}
