package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/racedaylabs/racelink/internal/api"
	"github.com/racedaylabs/racelink/internal/appctx"
	"github.com/racedaylabs/racelink/internal/output"
)

// sizeFlag is a pflag.Value restricted to the known photo variants.
type sizeFlag struct {
	size api.PhotoSize
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) String() string { return string(f.size) }

func (f *sizeFlag) Type() string { return "size" }

func (f *sizeFlag) Set(v string) error {
	switch api.PhotoSize(v) {
	case api.PhotoThumbnail, api.PhotoLarge, api.PhotoOriginal:
		f.size = api.PhotoSize(v)
		return nil
	}
	return fmt.Errorf("must be 'thumbnail', 'large', or 'original'")
}

// NewPhotosCmd creates the photos command group.
func NewPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Browse race photos",
		Long:  "List race photos and resolve image URLs. Photo access uses the partner key only.",
	}

	cmd.AddCommand(
		newPhotosListCmd(),
		newPhotosURLCmd(),
	)

	return cmd
}

func newPhotosListCmd() *cobra.Command {
	var bib string
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list <race-id>",
		Short: "List photos for a race",
		Long:  "List a race's photos, optionally filtered by bib number. An empty album is an empty list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			raceID, err := parseID("race ID", args[0])
			if err != nil {
				return err
			}

			list, err := app.Client.Photos().RacePhotos(cmd.Context(), raceID, api.RacePhotosOptions{
				Bib:     bib,
				Page:    page,
				PerPage: perPage,
			})
			if err != nil {
				return err
			}

			return app.OK(list, output.WithSummary("%s of %d total",
				pluralize(len(list.Photos), "photo", "photos"), list.Total))
		},
	}

	cmd.Flags().StringVar(&bib, "bib", "", "Only photos tagged with this bib number")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")

	return cmd
}

func newPhotosURLCmd() *cobra.Command {
	size := sizeFlag{size: api.PhotoOriginal}

	cmd := &cobra.Command{
		Use:   "url <race-id> <photo-id>",
		Short: "Resolve a photo variant URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			raceID, err := parseID("race ID", args[0])
			if err != nil {
				return err
			}
			photoID, err := parseID("photo ID", args[1])
			if err != nil {
				return err
			}

			photo, err := app.Client.Photos().FindPhoto(cmd.Context(), raceID, photoID)
			if err != nil {
				return err
			}

			return app.OK(map[string]any{
				"photo_id": photoID,
				"size":     size.size,
				"url":      api.PhotoURL(photo, size.size),
			})
		},
	}

	cmd.Flags().Var(&size, "size", "Variant: 'thumbnail', 'large', or 'original'")

	return cmd
}
