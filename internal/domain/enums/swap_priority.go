package enums

type SwapPriority string

const (
	SwapPriorityLow    SwapPriority = "low"
	SwapPriorityMedium SwapPriority = "medium"
	SwapPriorityHigh   SwapPriority = "high"
)

func (p SwapPriority) Valid() bool {
	switch p {
	case SwapPriorityLow, SwapPriorityMedium, SwapPriorityHigh:
		return true
	default:
		return false
	}
}
