package models

// FeatureSlot is one named feature returned by the vector index for a
// neighbor. Value holds the raw text of the feature value exactly as the
// index serialized it. The quoting style and labeling of these values has
// been observed to drift across index schema versions, so nothing here is
// parsed; decoding is the neighbor decoder's job.
type FeatureSlot struct {
	Name  string
	Value string
}

// NeighborRecord is one raw neighbor from the vector index, ordered by
// rank (closest first). Which slots carry the product id and the storage
// URI is index-schema configuration, not content derivable from the record.
type NeighborRecord struct {
	Features []FeatureSlot
}

// Slot returns the raw value of the feature at position i, or "" with
// ok=false when the record carries no such slot.
func (r NeighborRecord) Slot(i int) (string, bool) {
	if i < 0 || i >= len(r.Features) {
		return "", false
	}
	return r.Features[i].Value, true
}

// DecodedNeighbor is the strongly-typed result of decoding one raw
// neighbor record. ProductID is a non-empty decimal numeral with any file
// extension stripped. StorageURI matches scheme://bucket/path. Within one
// decoded set, product ids are distinct and order matches neighbor rank.
type DecodedNeighbor struct {
	ProductID  string
	StorageURI string
}
