package resolve

import (
	"fmt"
	"sort"

	"akleg-data/internal/model"
)

// ResolveBills derives the BillId of every scraped bill, the result is ordered by BillId.
func ResolveBills(scraped []model.ScrapedBill) ([]model.Bill, error) {
	var nullKeys []string
	bills := make([]model.Bill, 0, len(scraped))
	for i, b := range scraped {
		if !b.LegislatureNumber.Valid || !b.BillNumber.Valid {
			nullKeys = append(nullKeys, fmt.Sprintf("#%d (%s)", i, describeBillKey(b)))
			continue
		}
		bills = append(bills, model.Bill{
			BillId:            model.BillId(b.LegislatureNumber.Int16, b.BillNumber.String),
			LegislatureNumber: b.LegislatureNumber.Int16,
			BillNumber:        b.BillNumber.String,
			BillFields:        b.BillFields,
		})
	}
	err := Violation(CheckNullBillKey, "bills without a legislature or bill number", nullKeys)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.BillId
	}
	err = Violation(CheckDuplicateBillId, "bill ids are not unique", duplicates(ids))
	if err != nil {
		return nil, err
	}

	sort.Slice(bills, func(i, j int) bool {
		return bills[i].BillId < bills[j].BillId
	})
	return bills, nil
}

func describeBillKey(b model.ScrapedBill) string {
	leg := "null"
	if b.LegislatureNumber.Valid {
		leg = fmt.Sprint(b.LegislatureNumber.Int16)
	}
	number := "null"
	if b.BillNumber.Valid {
		number = b.BillNumber.String
	}
	return leg + ":" + number
}
