package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/viper"

	"github.com/bcgov/mmti-sync/internal/config"
	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/storage"
)

// storeURI is the configured store, or the legacy local default.
func storeURI() string {
	if uri := viper.GetString("store.uri"); uri != "" {
		return uri
	}
	return config.DefaultStoreURI
}

func openStore(ctx context.Context, uri string) (storage.Store, error) {
	utils.Log.Debugf("Connecting to %s", redact(uri))
	s, err := storage.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// redact hides the password of a connection string for logging.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparseable store URI>"
	}
	return u.Redacted()
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, err
	}
	return data, nil
}
