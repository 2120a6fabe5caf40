package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleCourier  = "courier"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64
	CreatedAt    time.Time
	Name         string
	Email        string
	Role         string
	PasswordHash string
}
