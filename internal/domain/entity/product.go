package entity

import "time"

// Product representa la existencia de un SKU en una bodega concreta.
// El par (SKU, Warehouse) es único: el mismo SKU en otra bodega es otro registro.
// Stock es un contador entero >= 0; solo lo mutan el ajustador de cantidades
// y el orquestador de transferencias, nunca un update genérico.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Category  string
	Unit      string
	Warehouse string
	Stock     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
