package domain

// ComputeStatus derives a bill's status from its two amounts. Every
// mutation path must go through this function; status is never stored
// independently of the amounts that define it.
func ComputeStatus(totalAmount, paidAmount int64) Status {
	switch {
	case paidAmount <= 0:
		return StatusPending
	case paidAmount >= totalAmount:
		return StatusPaid
	default:
		return StatusPartial
	}
}
