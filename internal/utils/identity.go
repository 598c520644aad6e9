package utils

import (
	"github.com/google/uuid"

	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/store"
)

// DeviceID returns this device's stable identifier, minting one on first
// use. The central server uses it to tell scanners apart in its audit
// trail, so it must survive restarts and re-logins.
func DeviceID(kv store.KV) (string, error) {
	var id string
	ok, err := kv.Get(models.CacheKeyDeviceID, &id)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := kv.Put(models.CacheKeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
