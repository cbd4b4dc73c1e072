package dto

import "github.com/shopspring/decimal"

type DisponibilidadResponse struct {
	ProductoID   string `json:"producto_id"`
	TipoProducto string `json:"tipo_producto"`
	Disponible   int    `json:"disponible"`
	Solicitado   int    `json:"solicitado"`
	Suficiente   bool   `json:"suficiente"`
}

type EntradaInventarioRequest struct {
	ProductoID    string          `json:"producto_id"    validate:"required,uuid"`
	TipoProducto  string          `json:"tipo_producto"  validate:"required,oneof=medicine general"`
	Cantidad      int             `json:"cantidad"       validate:"required,min=1"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"min=0"`
	Motivo        *string         `json:"motivo"         validate:"omitempty,max=255"`
}

type EntradaInventarioResponse struct {
	ProductoID    string          `json:"producto_id"`
	TipoProducto  string          `json:"tipo_producto"`
	StockAnterior int             `json:"stock_anterior"`
	StockNuevo    int             `json:"stock_nuevo"`
	CostoAnterior decimal.Decimal `json:"costo_anterior"`
	CostoNuevo    decimal.Decimal `json:"costo_nuevo"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}
