// Package models holds the gorm models of the users, accounts and sessions tables.
package models
