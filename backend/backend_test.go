// ABOUTME: Tests for backend selection
// ABOUTME: Opens sqlite and badger stores in temp dirs and round-trips an offer
package backend

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/offertrack/config"
	"github.com/harperreed/offertrack/models"
)

func testConfig(t *testing.T, name string) *config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backend = name
	return cfg
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for _, name := range []string{config.BackendSQLite, config.BackendBadger} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t, name)

			b, err := Open(cfg)
			require.NoError(t, err)
			assert.NotNil(t, b.DB)
			assert.Nil(t, b.Charm)

			tr, err := b.Tracker(time.UTC, logger)
			require.NoError(t, err)
			_, err = tr.AddOffer(models.Offer{Date: time.Now(), Channel: "chat", OfferType: "upgrade"})
			require.NoError(t, err)
			require.NoError(t, tr.SetDailyGoal(7))
			require.NoError(t, b.Close())

			b, err = Open(cfg)
			require.NoError(t, err)
			defer b.Close()
			tr, err = b.Tracker(time.UTC, logger)
			require.NoError(t, err)
			assert.Len(t, tr.Offers(), 1)
			assert.Equal(t, 7, tr.Settings().DailyGoal)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := OpenNamed(testConfig(t, config.BackendSQLite), "postgres")
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}
