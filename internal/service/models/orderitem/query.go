package orderitem

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	Ids        []int64 `json:"ids,omitempty"`
	OrderIds   []int64 `json:"orderIds,omitempty"`
	ProductIds []int64 `json:"productIds,omitempty"`
	VendorIds  []int64 `json:"vendorIds,omitempty"`
}
