package model

type FyersProfile struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email_id"`
	ClientID     string `json:"fy_id"`
	MobileNumber string `json:"mobile_number"`
	PAN          string `json:"pan"`
}

type FyersFunds struct {
	EquityAvailable    float64 `json:"equityAmount"`
	CommodityAvailable float64 `json:"commodityAmount"`
	UsedMargin         float64 `json:"utilized_amount"`
	AvailableMargin    float64 `json:"balance"`
}

type FyersHolding struct {
	Symbol       string  `json:"symbol"`
	ISIN         string  `json:"isin"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"costPrice"`
	LastPrice    float64 `json:"ltp"`
	PNL          float64 `json:"pl"`
	HoldingType  string  `json:"holdingType"`
}

type FyersOrder struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Side      int     `json:"side"`
	Type      int     `json:"type"`
	Quantity  int     `json:"qty"`
	Price     float64 `json:"limitPrice"`
	StopPrice float64 `json:"stopPrice"`
	Status    int     `json:"status"`
	Product   string  `json:"productType"`
}

type FyersPosition struct {
	Symbol       string  `json:"symbol"`
	Side         int     `json:"side"`
	Quantity     int     `json:"netQty"`
	AveragePrice float64 `json:"avgPrice"`
	LastPrice    float64 `json:"ltp"`
	PNL          float64 `json:"pl"`
	Product      string  `json:"productType"`
}
