package domain

// BalanceOp selects how a balance mutation applies its amount.
type BalanceOp string

const (
	BalanceOpSet      BalanceOp = "set"
	BalanceOpAdd      BalanceOp = "add"
	BalanceOpSubtract BalanceOp = "subtract"
)

// Apply computes the new balance. Negative results are allowed.
func (op BalanceOp) Apply(current, amount float64) float64 {
	switch op {
	case BalanceOpSet:
		return amount
	case BalanceOpSubtract:
		return current - amount
	default:
		return current + amount
	}
}
