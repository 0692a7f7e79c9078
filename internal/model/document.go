package model

import "math"

// Document is one uploaded PDF as extracted into a session.
type Document struct {
	Name        string  `json:"name"`
	StoragePath string  `json:"storage_path"`
	Text        string  `json:"text"`
	Pages       int     `json:"pages"`
	SizeKB      float64 `json:"size"`
}

// DocumentSummary is the list view of a Document, without its text.
type DocumentSummary struct {
	Name   string  `json:"name"`
	Pages  int     `json:"pages"`
	SizeKB float64 `json:"size"`
}

func (d Document) Summary() DocumentSummary {
	return DocumentSummary{Name: d.Name, Pages: d.Pages, SizeKB: d.SizeKB}
}

// SizeInKB converts a byte count to kilobytes rounded to two decimals.
func SizeInKB(bytes int64) float64 {
	return math.Round(float64(bytes)/1024.0*100) / 100
}
