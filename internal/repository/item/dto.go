package item

import (
	"github.com/reclaimhq/reclaim/internal/domain"
)

// jsonItem is the storage shape of an item record.
type jsonItem struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Disposition    string    `json:"disposition"`
	Status         string    `json:"status"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Images         []string  `json:"images,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	ImageEmbedding []float32 `json:"embedding_image,omitempty"`
	TextEmbedding  []float32 `json:"embedding_text,omitempty"`
}

func toJSON(rec domain.ItemRecord) jsonItem {
	doc := jsonItem{
		ID:             rec.ID,
		UserID:         rec.UserID,
		Disposition:    string(rec.Disposition),
		Status:         string(rec.Status),
		Title:          rec.Title,
		Description:    rec.Description,
		Images:         rec.Images,
		ImageEmbedding: rec.ImageEmbedding,
		TextEmbedding:  rec.TextEmbedding,
	}
	if rec.Coords != nil {
		lat, lon := rec.Coords.Latitude, rec.Coords.Longitude
		doc.Latitude = &lat
		doc.Longitude = &lon
	}
	return doc
}

func toDomain(doc jsonItem) domain.ItemRecord {
	rec := domain.ItemRecord{
		ID:             doc.ID,
		UserID:         doc.UserID,
		Disposition:    domain.Disposition(doc.Disposition),
		Status:         domain.Status(doc.Status),
		Title:          doc.Title,
		Description:    doc.Description,
		Images:         doc.Images,
		ImageEmbedding: doc.ImageEmbedding,
		TextEmbedding:  doc.TextEmbedding,
	}
	// Coordinates are present only when both halves are.
	if doc.Latitude != nil && doc.Longitude != nil {
		rec.Coords = &domain.Coordinates{Latitude: *doc.Latitude, Longitude: *doc.Longitude}
	}
	return rec
}
