package order

// QueryOrdersModel represents filter parameters for querying orders.
// VendorIds filters to orders containing at least one line item owned by
// one of the given vendors.
type QueryOrdersModel struct {
	Ids         []int64  `json:"ids,omitempty"`
	CustomerIds []int64  `json:"customerIds,omitempty"`
	VendorIds   []int64  `json:"vendorIds,omitempty"`
	Statuses    []Status `json:"statuses,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
}
