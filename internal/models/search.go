package models

// SearchResult groups cross-entity matches for a single search term.
type SearchResult struct {
	Residents []ResidentDetail `json:"residents"`
	Rooms     []RoomDetail     `json:"rooms"`
}

// Empty reports whether the search produced no matches at all.
func (r SearchResult) Empty() bool {
	return len(r.Residents) == 0 && len(r.Rooms) == 0
}
