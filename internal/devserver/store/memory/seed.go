package memory

import "torresegura/internal/models"

type SeedUser struct {
	Username   string
	Password   string
	Role       string
	FullName   string
	DwellingID int64
}

type SeedExpense struct {
	DwellingID int64
	Expense    models.Expense
}

type Seed struct {
	Users     []SeedUser
	Dwellings map[int64]string
	Areas     []models.Area
	Expenses  []SeedExpense
	Residents []models.Entry
}

// DefaultSeed is the fixture data the devserver starts with.
func DefaultSeed() Seed {
	return Seed{
		Users: []SeedUser{
			{Username: "vigilante", Password: "vigilante123", Role: "Vigilante", FullName: "Carlos Ruiz"},
			{Username: "residente", Password: "residente123", Role: "Residente", FullName: "María Gómez", DwellingID: 1},
			{Username: "gerente", Password: "gerente123", Role: "Gerente", FullName: "Laura Medina"},
		},
		Dwellings: map[int64]string{
			1: "Torre A - 102",
			2: "Torre A - 305",
			3: "Torre B - 201",
		},
		Areas: []models.Area{
			{ID: "piscina", Name: "Piscina", Description: "Piscina temperada del piso 1", Capacity: 20},
			{ID: "salon", Name: "Salón de eventos", Description: "Salón con cocina", Capacity: 60},
			{ID: "gimnasio", Name: "Gimnasio", Capacity: 12},
			{ID: "parrilla", Name: "Parrilla", Description: "Zona de parrillas de la azotea", Capacity: 15},
		},
		Expenses: []SeedExpense{
			{DwellingID: 1, Expense: models.Expense{ID: "1", Description: "Mantenimiento Mayo", Amount: "150.00", DueDate: "2025-05-31"}},
			{DwellingID: 1, Expense: models.Expense{ID: "2", Description: "Agua Mayo", Amount: "45.50", DueDate: "2025-05-31"}},
			{DwellingID: 2, Expense: models.Expense{ID: "3", Description: "Mantenimiento Mayo", Amount: "150.00", DueDate: "2025-05-31"}},
		},
		Residents: []models.Entry{
			{Name: "Juan Pérez", Type: models.EntryResident, Building: "Torre A"},
			{Name: "María Gómez", Type: models.EntryResident, Building: "Torre A"},
		},
	}
}
