package dto

// AdjustStockRequest body para POST /api/products/:id/stock-in y stock-out.
// Quantity es un entero estricto: floats o strings fallan el decode y se
// rechazan antes de cualquier acceso al store.
type AdjustStockRequest struct {
	Quantity int64 `json:"quantity"`
}

// TransferRequest body para POST /api/products/transfer.
type TransferRequest struct {
	ProductID     string `json:"product_id"`
	FromWarehouse string `json:"from_warehouse"`
	ToWarehouse   string `json:"to_warehouse"`
	Quantity      int64  `json:"quantity"`
}

// TransferResponse ambos registros tras una transferencia exitosa.
type TransferResponse struct {
	From ProductResponse `json:"from"`
	To   ProductResponse `json:"to"`
}
