// Package storage объявляет общие ошибки хранилищ пользователей.
//
// Реализации: postgres (prod) и filestore (локальная разработка).
package storage

import "errors"

var (
	// ErrUserExists — пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)
