package repoargs

type CreateMarket struct {
	Name    string
	City    string
	Address string
}

type CreateWashingStation struct {
	MarketID  int64
	AccountID *int64
	Name      string
	OwnerName string
	Phone     string
}

type CreateDriver struct {
	AccountID int64
	MarketID  *int64
	Name      string
	Phone     string
}
