// Row-shape folding for server responses. The backend has gone through
// several schema revisions and older RPCs still return historical field
// names; every known variant is mapped to the canonical structs here so the
// rest of the module never branches on shape.
package models

// ParkingPoint is the canonical shape of one collector assignment.
type ParkingPoint struct {
	ID            int64
	CollectorName string
	StreetName    string
	LocationName  string
	Shift         Shift
	TargetAmount  int64
	Active        bool
}

// Row is a decoded server row of unknown vintage.
type Row map[string]any

func (r Row) str(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (r Row) num(keys ...string) int64 {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
	}
	return 0
}

// FoldParkingPointRow maps a parking-point row to the canonical struct.
// Field-name variants, oldest first: the pre-migration Indonesian columns,
// the quoted display headers exposed by early RPCs, and the current schema.
func FoldParkingPointRow(r Row, streetName string) ParkingPoint {
	name := r.str("nama_jukir", "jukir_name", "Nama Jukir")
	if name == "" {
		name = "N/A"
	}
	location := r.str("lokasi_parkir", "location_name", "Titik Parkir")
	if location == "" {
		location = "N/A"
	}
	shift := Shift(r.str("jenis_shift", "shift"))

	active := true
	if v, ok := r["is_active"].(bool); ok {
		active = v
	}

	return ParkingPoint{
		ID:            r.num("id"),
		CollectorName: name,
		StreetName:    streetName,
		LocationName:  location,
		Shift:         shift,
		TargetAmount:  r.num("target_setoran", "target_amount"),
		Active:        active,
	}
}

// FoldStreetRow extracts the street name from a street-list row.
func FoldStreetRow(r Row) string {
	return r.str("ruas_jalan", "street_name", "Ruas Jalan", "name")
}

// FoldStreetRows folds a street listing, skipping rows with no usable name.
func FoldStreetRows(rows []Row) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if name := FoldStreetRow(r); name != "" {
			names = append(names, name)
		}
	}
	return names
}
