package server

import (
	"encoding/json"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
)

// ValidateGenesis runs the initializer against the app_state of every
// given genesis file. The state is loaded into a memory store and thrown
// away, so this is safe to run next to a live node.
func ValidateGenesis(ini quorum.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		doc, err := readGenesis(path)
		if err != nil {
			return errors.Wrap(err, path)
		}
		if err := loadAppState(ini, doc); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func loadAppState(ini quorum.Initializer, doc GenesisDoc) error {
	raw, ok := doc["app_state"]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return errors.Wrap(errors.ErrEmpty, "no app_state")
	}
	var opts quorum.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "app_state: %s", err)
	}
	if len(opts) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no app_state")
	}
	return errors.Wrap(ini.FromGenesis(opts, store.MemStore()), "initialize")
}
