package domain

import "fmt"

// PriceBucket is one of the fixed, pre-defined price ranges a shopper can filter by.
// Both bounds are inclusive.
type PriceBucket struct {
	ID   int    `json:"_id"`
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// Range returns the bucket in the `[min, max]` form the filter endpoint expects.
func (b PriceBucket) Range() []int {
	return []int{b.Min, b.Max}
}

func (b PriceBucket) String() string {
	return fmt.Sprintf("%s [%d,%d]", b.Name, b.Min, b.Max)
}

// Prices is the storefront's price filter catalogue.
var Prices = []PriceBucket{
	{ID: 0, Name: "$0 to 19", Min: 0, Max: 19},
	{ID: 1, Name: "$20 to 39", Min: 20, Max: 39},
	{ID: 2, Name: "$40 to 59", Min: 40, Max: 59},
	{ID: 3, Name: "$60 to 79", Min: 60, Max: 79},
	{ID: 4, Name: "$80 to 99", Min: 80, Max: 99},
	{ID: 5, Name: "$100 or more", Min: 100, Max: 9999},
}

// PriceBucketByID looks up a bucket in Prices.
func PriceBucketByID(id int) (PriceBucket, bool) {
	for _, b := range Prices {
		if b.ID == id {
			return b, true
		}
	}
	return PriceBucket{}, false
}
