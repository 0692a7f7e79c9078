package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("a document with this name already exists")
	ErrUnsupportedFile  = errors.New("only PDF files are allowed")
	ErrFileTooLarge     = errors.New("file too large")
)
