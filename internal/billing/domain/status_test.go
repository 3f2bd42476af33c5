package domain

import "testing"

func TestComputeStatus(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  Status
	}{
		{"unpaid", 50000, 0, StatusPending},
		{"partial", 50000, 20000, StatusPartial},
		{"one cent short", 50000, 49999, StatusPartial},
		{"exact", 50000, 50000, StatusPaid},
		{"tolerated overage", 50000, 50010, StatusPaid},
		{"smallest payment", 50000, 1, StatusPartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeStatus(tc.total, tc.paid); got != tc.want {
				t.Fatalf("ComputeStatus(%d, %d) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestBillBalance(t *testing.T) {
	bill := Bill{TotalAmount: 50000, PaidAmount: 20000}
	if got := bill.Balance(); got != 30000 {
		t.Fatalf("Balance() = %d, want 30000", got)
	}
}
