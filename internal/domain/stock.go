package domain

type StockSnapshot struct {
	ProductID      int64 `json:"productId"`
	TotalStock     int   `json:"totalStock"`
	AvailableStock int   `json:"availableStock"`
	ReservedStock  int   `json:"reservedStock"`
}

// StockStatus answers whether a requested quantity can be set.
type StockStatus struct {
	Available       int  `json:"available"`
	HasStock        bool `json:"hasStock"`
	ExceedsQuantity bool `json:"exceedsQuantity"`
	MaxQuantity     int  `json:"maxQuantity"`
}

type StockItemDetail struct {
	ProductID int64 `json:"productId"`
	Requested int   `json:"requested"`
	StockStatus
}

type StockValidation struct {
	IsValid        bool              `json:"isValid"`
	HasOutOfStock  bool              `json:"hasOutOfStock"`
	HasExceeded    bool              `json:"hasExceeded"`
	PerItemDetails []StockItemDetail `json:"perItemDetail"`
}
