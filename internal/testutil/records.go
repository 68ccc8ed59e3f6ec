package testutil

import (
	"time"

	"salesdash/internal/models"
)

// Rec builds a normalized record for tests. date must be YYYY-MM-DD.
func Rec(orderID, date, itemName, itemType, payment string, tod models.TimeOfSale, qty int, amount float64) models.Record {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic("testutil.Rec: bad date " + date)
	}
	return models.Record{
		OrderID:         orderID,
		Date:            d,
		ItemName:        itemName,
		ItemType:        itemType,
		Quantity:        qty,
		Amount:          amount,
		TransactionType: payment,
		ReceivedBy:      "Mr.",
		TimeOfSale:      tod,
		YearMonth:       models.MonthOf(d),
	}
}

// SampleRecords is a small three-month dataset.
//
//	monthly amount: 2022-01=20, 2022-02=80, 2022-03=55 (total 155)
//	quantity by item: Burger=5, Soda=5, Sandwich=4, Tea=5
//	amount by item: Burger=25, Soda=25, Sandwich=80, Tea=25
//	7 distinct orders over 8 lines
func SampleRecords() []models.Record {
	recs := []models.Record{
		Rec("O1", "2022-01-05", "Burger", "Fastfood", "Cash", models.Morning, 2, 10),
		Rec("O2", "2022-01-05", "Soda", "Beverages", "Card", models.Afternoon, 1, 5),
		Rec("O2", "2022-01-12", "Burger", "Fastfood", "Card", models.Night, 1, 5),
		Rec("O3", "2022-02-10", "Sandwich", "Fastfood", "Online", models.Evening, 3, 60),
		Rec("O4", "2022-02-14", "Soda", "Beverages", "Cash", models.Morning, 4, 20),
		Rec("O5", "2022-03-01", "Burger", "Fastfood", "Cash", models.Night, 2, 10),
		Rec("O6", "2022-03-15", "Tea", "Beverages", "Online", models.Evening, 5, 25),
		Rec("O7", "2022-03-20", "Sandwich", "Fastfood", "Cash", models.Afternoon, 1, 20),
	}
	recs[1].ReceivedBy = "Mrs."
	recs[2].ReceivedBy = "Mrs."
	recs[5].ReceivedBy = "Mrs."
	recs[7].ReceivedBy = "Mrs."
	return recs
}

// SampleCSV is SampleRecords rendered in the source file layout
const SampleCSV = `order_id,date,item_name,item_type,item_price,quantity,transaction_amount,transaction_type,received_by,time_of_sale
O1,01/05/2022,Burger,Fastfood,5,2,10,Cash,Mr.,Morning
O2,2022-01-05,Soda,Beverages,5,1,5,Card,Mrs.,Afternoon
O2,12-01-2022,Burger,Fastfood,5,1,5, Card ,Mrs.,Night
O3,2022-02-10,Sandwich,Fastfood,20,3,60,Online,Mr.,Evening
O4,2/14/2022,Soda,Beverages,5,4,20,Cash,Mr.,Morning
O5,2022-03-01,Burger,Fastfood,5,2,10,Cash,Mrs.,Night
O6,2022-03-15,Tea,Beverages,5,5,25,Online,Mr.,Evening
O7,2022-03-20,Sandwich,Fastfood,20,1,20,Cash,Mrs.,Afternoon
O8,someday,Tea,Beverages,5,1,5,Cash,Mr.,Evening
O9,2022-03-21,Tea,Beverages,5,1,5,,Mr.,Evening
`
