package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/racedaylabs/racelink/internal/models"
	"github.com/racedaylabs/racelink/internal/output"
)

// PhotoService exposes read-only race photo operations.
// Photo paths carry the partner key only; no user token is involved.
type PhotoService struct {
	client *Client
}

// PhotoSize selects an image variant.
type PhotoSize string

const (
	PhotoThumbnail PhotoSize = "thumbnail"
	PhotoLarge     PhotoSize = "large"
	PhotoOriginal  PhotoSize = "original"
)

// RacePhotosOptions pages through a race's photo album.
type RacePhotosOptions struct {
	Bib     string // filter to photos tagged with this bib number
	Page    int
	PerPage int
}

// PhotoList is a page of photos with the total match count.
type PhotoList struct {
	Photos []models.RacePhoto `json:"photos"`
	Total  int                `json:"total"`
}

// RacePhotos fetches photos for a race. A race with no photos is an empty
// list, not an error.
func (s *PhotoService) RacePhotos(ctx context.Context, raceID int64, opts RacePhotosOptions) (*PhotoList, error) {
	params := url.Values{}
	if opts.Bib != "" {
		params.Set("bib_num", opts.Bib)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		params.Set("results_per_page", strconv.Itoa(opts.PerPage))
	}

	resp, err := s.client.Get(ctx, fmt.Sprintf("/race/%d/photos", raceID), params)
	if err != nil {
		if isNoRecords(err) {
			return &PhotoList{Photos: []models.RacePhoto{}}, nil
		}
		return nil, err
	}

	var wire struct {
		Photos []models.RacePhoto `json:"photos"`
		Total  int                `json:"total_results"`
	}
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse photos: %w", err)
	}
	if wire.Photos == nil {
		wire.Photos = []models.RacePhoto{}
	}
	return &PhotoList{Photos: wire.Photos, Total: wire.Total}, nil
}

// findPageSize keeps FindPhoto's page count low on large albums.
const findPageSize = 100

// FindPhoto pages through a race's album until it finds the photo. Albums
// can span many pages, so a miss on the first page is not a miss.
func (s *PhotoService) FindPhoto(ctx context.Context, raceID, photoID int64) (*models.RacePhoto, error) {
	seen := 0
	for page := 1; ; page++ {
		list, err := s.RacePhotos(ctx, raceID, RacePhotosOptions{Page: page, PerPage: findPageSize})
		if err != nil {
			return nil, err
		}
		for i := range list.Photos {
			if list.Photos[i].ID == photoID {
				return &list.Photos[i], nil
			}
		}
		seen += len(list.Photos)
		if len(list.Photos) == 0 || (list.Total > 0 && seen >= list.Total) {
			return nil, output.ErrNotFound("photo", strconv.FormatInt(photoID, 10))
		}
	}
}

// PhotoURL returns the URL for the requested variant. Pure mapping, no
// network effect; missing variants fall back to the original image.
func PhotoURL(photo *models.RacePhoto, size PhotoSize) string {
	switch size {
	case PhotoThumbnail:
		if photo.Variants.Thumbnail != "" {
			return photo.Variants.Thumbnail
		}
	case PhotoLarge:
		if photo.Variants.Large != "" {
			return photo.Variants.Large
		}
	}
	return photo.Variants.Original
}
