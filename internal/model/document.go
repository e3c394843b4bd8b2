package model

import "fmt"

// DocumentAttributes renders a document snapshot suitable for
// Get-Document-Attributes / Get-Documents responses; kept separate
// from the wire encoding (internal/ipp owns goipp types) so this
// package has no dependency on the attribute library.
type DocumentAttributes struct {
	Number      int
	Format      string
	State       JobState
	KOctets     int
	Impressions int
}

// Attributes projects a Document into its wire-agnostic attribute
// view.
func (d *Document) Attributes() DocumentAttributes {
	return DocumentAttributes{
		Number:      d.Number,
		Format:      d.Format,
		State:       d.State,
		KOctets:     d.KOctets,
		Impressions: d.Impressions,
	}
}

// ValidateOrder checks the spec.md §3 invariant that documents are
// numbered 1..N with no gaps.
func ValidateOrder(docs []*Document) error {
	for i, d := range docs {
		if d.Number != i+1 {
			return fmt.Errorf("document out of order: position %d has number %d", i, d.Number)
		}
	}
	return nil
}
