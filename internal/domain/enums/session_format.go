package enums

type SessionFormat string

const (
	SessionFormatOnline  SessionFormat = "online"
	SessionFormatOffline SessionFormat = "offline"
	SessionFormatHybrid  SessionFormat = "hybrid"
)

func (f SessionFormat) Valid() bool {
	switch f {
	case SessionFormatOnline, SessionFormatOffline, SessionFormatHybrid:
		return true
	default:
		return false
	}
}
