// cmd/seeddata/main.go: Crea una sucursal, usuarios demo y un catálogo mínimo
// en PostgreSQL e imprime un token por usuario.
// Uso: go run ./cmd/seeddata
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"hersis/internal/config"
	"hersis/internal/infra"
	"hersis/internal/middleware"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const demoPassword = "hersis"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	sucursal := model.Sucursal{Nombre: "Farmacia Central"}
	admin := model.Usuario{Username: "admin", Nombre: "Administrador", PasswordHash: string(hash), Rol: middleware.RolAdministrador, Activo: true}
	cajero := model.Usuario{Username: "cajero", Nombre: "Cajero Demo", PasswordHash: string(hash), Rol: middleware.RolCajero, Activo: true}

	err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sucursal).Error; err != nil {
			return err
		}
		cajero.SucursalID = &sucursal.ID
		for _, u := range []*model.Usuario{&admin, &cajero} {
			// Re-running the tool resets the demo users
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "username"}},
				DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "sucursal_id", "activo"}),
			}).Create(u).Error
			if err != nil {
				return err
			}
			if err := tx.Where("username = ?", u.Username).First(u).Error; err != nil {
				return err
			}
		}

		analgesicos := model.Categoria{Nombre: "Analgésicos", Activo: true}
		higiene := model.Categoria{Nombre: "Higiene y cuidado", Activo: true}
		for _, c := range []*model.Categoria{&analgesicos, &higiene} {
			if err := tx.Where(model.Categoria{Nombre: c.Nombre}).FirstOrCreate(c).Error; err != nil {
				return err
			}
		}

		meds := []model.Medicamento{
			{ProductoBase: base(sucursal, &analgesicos, "Paracetamol 500mg x20", "1500", "900", 40), PrincipioActivo: "paracetamol"},
			{ProductoBase: base(sucursal, &analgesicos, "Ibuprofeno 400mg x10", "2100", "1250", 6), PrincipioActivo: "ibuprofeno"},
			{ProductoBase: base(sucursal, nil, "Amoxicilina 500mg x16", "4800", "3100", 25), PrincipioActivo: "amoxicilina", RequiereReceta: true},
		}
		if err := tx.Create(&meds).Error; err != nil {
			return err
		}
		generales := []model.ProductoGeneral{
			{ProductoBase: base(sucursal, &higiene, "Alcohol en gel 250ml", "1900", "1100", 30)},
			{ProductoBase: base(sucursal, &higiene, "Protector solar FPS50", "8900", "5600", 0)},
		}
		return tx.Create(&generales).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed error")
	}

	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	fmt.Printf("Sucursal %s (%s)\n", sucursal.Nombre, sucursal.ID)
	for _, u := range []model.Usuario{admin, cajero} {
		tok, err := middleware.SignToken(cfg.JWTSecret, u.ID, u.Username, u.Rol, u.SucursalID, ttl)
		if err != nil {
			log.Fatal().Err(err).Msg("sign token")
		}
		fmt.Printf("Usuario '%s' (%s) password '%s'\n  token: %s\n", u.Username, u.Rol, demoPassword, tok)
	}
}

func base(s model.Sucursal, cat *model.Categoria, nombre, precio, costo string, stock int) model.ProductoBase {
	var categoriaID *uuid.UUID
	if cat != nil {
		categoriaID = &cat.ID
	}
	return model.ProductoBase{
		CategoriaID:     categoriaID,
		Nombre:          nombre,
		PrecioVenta:     decimal.RequireFromString(precio),
		PrecioCompra:    decimal.RequireFromString(costo),
		Stock:           stock,
		UnidadesPorCaja: 1,
		Activo:          true,
		SucursalID:      s.ID,
	}
}
