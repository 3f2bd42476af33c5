package cache

import "fmt"

const KeyBills = "bills"

func KeyBill(billID int64) string {
	return fmt.Sprintf("bill:%d", billID)
}

func KeyPatientBills(patientID int64) string {
	return fmt.Sprintf("patient:%d:bills", patientID)
}
