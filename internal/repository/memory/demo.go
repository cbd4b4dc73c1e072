package memory

import (
	"time"

	"hersis/internal/model"

	"github.com/shopspring/decimal"
)

// Demo identifies the records written by SeedDemo.
type Demo struct {
	Sucursal      model.Sucursal
	Administrador model.Usuario
	Cajero        model.Usuario
	Productos     []model.Producto
}

// SeedDemo fills an empty store with one sucursal, two users and a small
// catalog, enough to open a caja and post sales against it.
func SeedDemo(s *Store, passwordHash string) Demo {
	d := Demo{}
	d.Sucursal = s.PutSucursal(model.Sucursal{Nombre: "Farmacia Central"})
	d.Administrador = s.PutUsuario(model.Usuario{
		Username: "admin", Nombre: "Administrador", PasswordHash: passwordHash,
		Rol: "administrador", Activo: true,
	})
	d.Cajero = s.PutUsuario(model.Usuario{
		Username: "cajero", Nombre: "Cajero Demo", PasswordHash: passwordHash,
		Rol: "cajero", SucursalID: &d.Sucursal.ID, Activo: true,
	})

	vence := time.Now().AddDate(0, 0, 20)
	items := []struct {
		tipo   model.TipoProducto
		nombre string
		precio string
		costo  string
		stock  int
		vence  *time.Time
	}{
		{model.TipoMedicamento, "Paracetamol 500mg x20", "1500", "900", 40, nil},
		{model.TipoMedicamento, "Ibuprofeno 400mg x10", "2100", "1250", 6, nil},
		{model.TipoMedicamento, "Amoxicilina 500mg x16", "4800", "3100", 25, &vence},
		{model.TipoGeneral, "Alcohol en gel 250ml", "1900", "1100", 30, nil},
		{model.TipoGeneral, "Protector solar FPS50", "8900", "5600", 0, nil},
	}
	for _, it := range items {
		d.Productos = append(d.Productos, s.PutProducto(it.tipo, model.ProductoBase{
			Nombre:           it.nombre,
			PrecioVenta:      decimal.RequireFromString(it.precio),
			PrecioCompra:     decimal.RequireFromString(it.costo),
			Stock:            it.stock,
			UnidadesPorCaja:  1,
			FechaVencimiento: it.vence,
			Activo:           true,
			SucursalID:       d.Sucursal.ID,
		}))
	}
	return d
}
