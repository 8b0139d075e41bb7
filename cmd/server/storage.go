package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/config"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

// InitStorage selects and returns the configured storage backend
func InitStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(
			cfg.SpacesEndpoint,
			cfg.SpacesRegion,
			cfg.SpacesBucket,
			cfg.SpacesCDNURL,
			cfg.SpacesAccessKey,
			cfg.SpacesSecretKey,
		)
		if err != nil {
			return nil, err
		}
		log.Info().Str("cdn", cfg.SpacesCDNURL).Msg("using DigitalOcean Spaces storage")
		return spacesStorage, nil
	}

	local := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	log.Info().Str("dir", cfg.UploadDir).Msg("using local file storage")
	return local, nil
}
