package domain

// Disposition says whether an item report is about something lost or found.
type Disposition string

const (
	// Lost marks a report filed by someone who lost the item.
	Lost Disposition = "lost"
	// Found marks a report filed by someone who found the item.
	Found Disposition = "found"
)

// Opposite returns the counterpart disposition for candidate lookup.
func (d Disposition) Opposite() Disposition {
	if d == Lost {
		return Found
	}
	return Lost
}

// Valid reports whether d is a known disposition.
func (d Disposition) Valid() bool {
	return d == Lost || d == Found
}

// Status is the lifecycle state of an item report.
type Status string

const (
	// StatusActive is an open report still awaiting resolution.
	StatusActive Status = "active"
	// StatusMatched is a report linked to a counterpart but not yet handed over.
	StatusMatched Status = "matched"
	// StatusResolved is a closed report.
	StatusResolved Status = "resolved"
)

// Terminal reports whether the status excludes the item from matching and maintenance.
func (s Status) Terminal() bool {
	return s == StatusResolved
}

// FeatureVector is a fixed-length embedding produced by an external extractor.
// A nil or empty slice means the vector is absent.
type FeatureVector []float32

// Present reports whether the vector carries any data.
func (v FeatureVector) Present() bool {
	return len(v) > 0
}

// Coordinates is an optional geographic position. Absent when the pointer is nil.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Valid checks that latitude is in [-90,90] and longitude in [-180,180].
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// ItemRecord is a lost-or-found report. Embedding fields may be absent until
// the extractors have run; coordinates may be absent when the reporter gave none.
type ItemRecord struct {
	ID             string
	UserID         string
	Disposition    Disposition
	Status         Status
	Title          string
	Description    string
	Images         []string
	Coords         *Coordinates
	ImageEmbedding FeatureVector
	TextEmbedding  FeatureVector
}

// DefaultImageRef is the placeholder shown when a record carries no images.
const DefaultImageRef = "/static/uploads/default.jpg"

// PrimaryImage returns the representative image reference for display.
func (r ItemRecord) PrimaryImage() string {
	if len(r.Images) > 0 {
		return r.Images[0]
	}
	return DefaultImageRef
}

// UserProfile is the contact identity of a report owner.
type UserProfile struct {
	ID    string
	Name  string
	Email string
}

// AnonymousUserName is shown when an owner cannot be resolved.
const AnonymousUserName = "Anonymous User"
