package animals

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("animal not found")
	ErrAlreadyExists = errors.New("animal already exists")

	// ErrStoreWrite: el store rechazó una escritura (red, permisos).
	ErrStoreWrite = errors.New("store write failed")
	ErrStoreRead  = errors.New("store read failed")

	// ErrDocumentMissing: al crear el log el documento no existe o no tiene startTime.
	ErrDocumentMissing = errors.New("document missing or without startTime")
)
